package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-pdf-translator/pkg/language"
)

// NewLanguagesCommand 创建 languages 命令
func NewLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages [query]",
		Short: "列出支持的语言，可按名称或代码模糊搜索",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			langs := language.Search(query)
			if len(langs) == 0 {
				return fmt.Errorf("没有匹配 %q 的语言", query)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"代码", "名称"})
			for _, lang := range langs {
				tw.AppendRow(table.Row{lang.Code, lang.Name})
			}
			tw.AppendFooter(table.Row{"共", len(langs)})
			tw.SetStyle(table.StyleLight)
			tw.Render()
			return nil
		},
	}
}

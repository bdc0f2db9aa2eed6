package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-pdf-translator/pkg/language"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/translation"
)

// NewDetectCommand 创建 detect 命令
func NewDetectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <text>",
		Short: "检测一段文本的语言（诊断用）",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			defer func() {
				_ = log.Sync()
			}()

			prov, err := newProvider(cfg)
			if err != nil {
				return fmt.Errorf("创建翻译提供商失败: %w", err)
			}

			translator, err := translation.New(prov, translation.Config{
				ChunkSize:   cfg.ChunkSize,
				Concurrency: 1,
			}, translation.WithLogger(log))
			if err != nil {
				return err
			}

			code, err := translator.DetectLanguage(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if code == "" {
				return fmt.Errorf("%s 未能识别文本语言", prov.GetName())
			}

			if lang, ok := language.Lookup(code); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", lang.Code, lang.Name)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}
}

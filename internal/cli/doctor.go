package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-pdf-translator/internal/pdftool"
)

// NewDoctorCommand 创建 doctor 命令
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "检查外部 PDF 工具是否可用",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			defer func() {
				_ = log.Sync()
			}()

			registry := pdftool.NewRegistry(cfg.Tools, log)
			statuses := registry.Check(cmd.Context())
			out := cmd.OutOrStdout()

			tw := table.NewWriter()
			tw.SetOutputMirror(out)
			tw.AppendHeader(table.Row{"工具", "状态", "必需", "版本", "路径"})
			for _, st := range statuses {
				state := color.RedString("缺失")
				if st.Available {
					state = color.GreenString("可用")
				}
				required := ""
				if st.Tool.Required {
					required = "是"
				}
				tw.AppendRow(table.Row{st.Tool.Name, state, required, st.Version, st.Path})
			}
			tw.SetStyle(table.StyleLight)
			tw.Render()

			fmt.Fprintf(out, "PDF 后端: %s\n", cfg.Tools.PDFBackend)

			missing := registry.Missing(cmd.Context())
			if len(missing) == 0 {
				color.New(color.FgGreen).Fprintln(out, "✅ 所有必需工具均已安装")
				return nil
			}

			fmt.Fprintln(out)
			for _, name := range missing {
				fmt.Fprintln(out, registry.SuggestInstallation(name))
			}
			return fmt.Errorf("缺少必需工具: %s", strings.Join(missing, ", "))
		},
	}
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "framemover",
	Short: "按文件名数字后缀挑选并移动图片的工具",
	Long: `framemover 从源目录中挑出文件名以指定数字后缀结尾的图片，
按原有的目录结构移动到目标目录。

主要功能:
- 递归扫描源目录，只处理 jpg/jpeg/png/heic/gif/tif/tiff/webp 图片
- 文件名（不含扩展名）以任一后缀结尾即视为匹配，例如 7612 匹配 IMG_7612.JPG
- 基于 SHA-256 内容摘要跳过目标目录中已存在的相同文件
- 同名但内容不同时自动重命名为 name-1.ext、name-2.ext ……
- 跨磁盘时自动回退为复制后删除
- 支持演练模式，只报告结果不修改任何文件`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认查找 $HOME/.framemover/config.yaml）")
}

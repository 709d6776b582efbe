// Command fit2fit はジム管理APIサーバー、リマインダーワーカー、マイグレーションを
// サブコマンドで切り替えて起動する。
//
//	fit2fit [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/fit2fit/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

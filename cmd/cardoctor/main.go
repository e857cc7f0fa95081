// Command cardoctor は整備サービス掲載情報と予約台帳のAPIサーバーを起動する。
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/cardoctor/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "cardoctor: %v\n", err)
		os.Exit(1)
	}
}

package cli

import (
	"fmt"

	"github.com/diillson/aws-lambda-monitoring-go/pkg/version"
	"github.com/fatih/color"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner(versionStr string) {
	banner := `
         /$$$$$$$$ /$$            /$$      /$$                     /$$   /$$
        | $$_____/|__/           | $$$    /$$$                    |__/  | $$
        | $$       /$$ /$$$$$$$ | $$$$  /$$$$  /$$$$$$  /$$$$$$$  /$$ /$$$$$$    /$$$$$$   /$$$$$$
        | $$$$$   | $$| $$__  $$| $$ $$/$$ $$ /$$__  $$| $$__  $$| $$|_  $$_/   /$$__  $$ /$$__  $$
        | $$__/   | $$| $$  \ $$| $$  $$$| $$| $$  \ $$| $$  \ $$| $$  | $$    | $$  \ $$| $$  \__/
        | $$      | $$| $$  | $$| $$\  $ | $$| $$  | $$| $$  | $$| $$  | $$ /$$| $$  | $$| $$
        | $$      | $$| $$  | $$| $$ \/  | $$|  $$$$$$/| $$  | $$| $$  |  $$$$/|  $$$$$$/| $$
        |__/      |__/|__/  |__/|__/     |__/ \______/ |__/  |__/|__/   \___/   \______/ |__/
        `
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(red(banner))

	// Obtem a string formatada da versão através do pacote version
	formattedVersion := version.FormatVersion()
	fmt.Println(blue(fmt.Sprintf("AWS Lambda Monitoring CLI (v%s)", formattedVersion)))
}

package main

import (
	"os"

	chartdexcmder "github.com/chartdexhq/chartdex/cmd/chartdex"
)

func main() {
	cmd := chartdexcmder.NewChartdexCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import "github.com/JohannesMeyerYC/quant-job-scraper/cmd"

func main() {
	cmd.Execute()
}

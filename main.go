// Command firmcrawler crawls organization websites into structured firm records.
package main

import (
	"github.com/JakeFAU/firm-intel-crawler/cmd"
)

func main() {
	cmd.Execute()
}

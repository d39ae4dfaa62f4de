// Command nextclade-go aligns, analyzes and clade-assigns viral genome
// sequences against a reference dataset (§0/§6): the "run" subcommand
// drives the three-stage analysis pipeline, and "dataset list"/"dataset
// get" manage the reference datasets "run" consumes.
//
// The subcommand tree and its v.io/x/lib/cmdline + grailbio/base/cmdutil
// wiring follow grailbio-bio/cmd/bio-pamtool/cmd/main.go.
package main

import (
	"log"

	"v.io/x/lib/cmdline"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(&cmdline.Command{
		Name:  "nextclade-go",
		Short: "Viral genome alignment, mutation calling, translation, QC and clade assignment",
		Children: []*cmdline.Command{
			newCmdRun(),
			newCmdDataset(),
		},
	})
}

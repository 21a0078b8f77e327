package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/draftsync/draftsync/cmd/common"
	"github.com/draftsync/draftsync/pkg/draftcli"
	"github.com/urfave/cli"
)

func open(ctx *cli.Context) error {
	if docId == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no document id provided, use --doc"),
		)
	}

	var content string
	if fileName := ctx.Args().First(); fileName != "" {
		if fileName == "help" {
			return cli.ShowCommandHelp(ctx, ctx.Command.Name)
		}
		buf, err := os.ReadFile(fileName)
		if err != nil {
			common.PrintRuntimeErr(ctx, "open", "read_file", err)
			return nil
		}
		content = string(buf)
	}

	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "open", "new_client", err)
		return nil
	}
	defer client.Close()
	client.CheckVersionMismatch(currentBuildArgs.Version)

	r, err := client.EditOpen(docId, docVersion, &draftcli.EditOpenOpts{
		Content:          content,
		DebounceSeconds:  debounceSeconds,
		MaxWaitSeconds:   maxWaitSeconds,
		DiscardRecovered: discardRecovered,
	})
	if err != nil {
		common.PrintRuntimeErr(ctx, "open", "edit_open", err)
		return nil
	}

	fmt.Printf("Session started: %s (document %s, version %s)\n",
		r.SessionId, r.DocumentId, r.Version)
	if r.HasRecovered {
		fmt.Printf("Recovered unsaved draft from %s (%d bytes)\n",
			r.RecoveredAt.Format("2006-01-02 15:04:05"), len(r.Recovered))
		fmt.Println("Use \"draftsync sync\" to push it back or --discard-recovered to drop it.")
	}
	return nil
}

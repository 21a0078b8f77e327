package cmd

import (
	"fmt"

	"github.com/draftsync/draftsync/cmd/common"
	draftsyncCommon "github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/pkg/draftcli"
	"github.com/urfave/cli"
)

func attach(ctx *cli.Context) error {
	id, err := sessionArg(ctx)
	if id == "" {
		return err
	}
	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "attach", "new_client", err)
		return nil
	}
	client.CheckVersionMismatch(currentBuildArgs.Version)

	st, err := client.Attach(id)
	if err != nil {
		common.PrintRuntimeErr(ctx, "attach", "client_attach", err)
		return nil
	}
	printStatus(st)
	fmt.Println(">> Streaming session updates, Ctrl-C to stop <<")

	client.RegisterHandler(
		draftsyncCommon.UPDATE_SESSION,
		draftcli.NewSessionUpdateHandler("", printUpdate),
	)
	return client.Listen()
}

func printUpdate(u *draftsyncCommon.SessionUpdate) error {
	switch u.Action {
	case draftsyncCommon.SaveStatus:
		fmt.Printf("save: %s\n", u.Status)
	case draftsyncCommon.SaveComplete:
		fmt.Printf("save: complete (version %s)\n", u.Version)
	case draftsyncCommon.SaveFailed:
		fmt.Printf("save: failed: %s\n", u.Message)
	case draftsyncCommon.UploadState:
		fmt.Printf("upload %s: %s\n", u.TaskId, u.Status)
	case draftsyncCommon.UploadProgress:
		fmt.Printf("upload %s: %d%%\n", u.TaskId, u.Value)
	case draftsyncCommon.UploadComplete:
		fmt.Printf("upload %s: done %s\n", u.TaskId, u.Url)
	case draftsyncCommon.UploadDrained:
		fmt.Printf("upload queue drained (%d/%d)\n", u.Checked, u.Total)
	case draftsyncCommon.ScanProgress:
		fmt.Printf("scan: %d/%d\n", u.Checked, u.Total)
	case draftsyncCommon.ScanResult:
		if u.Result != nil {
			fmt.Printf("scan: %s -> %s\n", u.Result.URL, u.Result.Outcome)
		}
	case draftsyncCommon.ScanComplete:
		fmt.Println("scan: complete")
	default:
		fmt.Printf("%s: %s\n", u.Action, u.Message)
	}
	return nil
}

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/draftsync/draftsync/cmd/common"
	draftsyncCommon "github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/pkg/draftcli"
	"github.com/draftsync/draftsync/pkg/draftlib"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
)

func scan(ctx *cli.Context) error {
	id, err := sessionArg(ctx)
	if id == "" {
		return err
	}
	if scanReset {
		client, err := draftcli.NewClient()
		if err != nil {
			common.PrintRuntimeErr(ctx, "scan", "new_client", err)
			return nil
		}
		defer client.Close()
		if _, err = client.ResetScan(id); err != nil {
			common.PrintRuntimeErr(ctx, "scan", "reset_scan", err)
			return nil
		}
		fmt.Println("Scan state cleared.")
		return nil
	}
	args := ctx.Args().Tail()
	if len(args) == 0 {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no document files provided"),
		)
	}
	docs := make([]draftlib.Document, len(args))
	for i, path := range args {
		buf, err := os.ReadFile(path)
		if err != nil {
			common.PrintRuntimeErr(ctx, "scan", "read_file", err)
			return nil
		}
		docs[i] = draftlib.Document{
			ID:     path,
			Label:  filepath.Base(path),
			Markup: string(buf),
		}
	}

	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "scan", "new_client", err)
		return nil
	}
	client.CheckVersionMismatch(currentBuildArgs.Version)

	if _, err = client.Attach(id); err != nil {
		common.PrintRuntimeErr(ctx, "scan", "client_attach", err)
		return nil
	}
	r, err := client.Scan(id, docs, &draftcli.ScanOpts{
		Concurrency:    scanConcurrency,
		TimeoutSeconds: scanTimeout,
	})
	if err != nil {
		common.PrintRuntimeErr(ctx, "scan", "scan", err)
		return nil
	}
	if r.Total == 0 {
		fmt.Println("No resource URLs found.")
		return nil
	}
	fmt.Printf(">> Scanning %d resource URLs <<\n", r.Total)
	registerScanHandlers(client, int64(r.Total))
	return client.Listen()
}

// registerScanHandlers drives a progress bar from scan updates and prints
// unhealthy results as they stream in.
func registerScanHandlers(client *draftcli.Client, total int64) {
	rr := time.Millisecond * 30
	p := mpb.New(mpb.WithWidth(64), mpb.WithRefreshRate(rr))
	bar := common.InitTaskBar(p, "Scanning", total)
	unhealthy := 0

	client.RegisterHandler(
		draftsyncCommon.UPDATE_SESSION,
		draftcli.NewSessionUpdateHandler("", func(u *draftsyncCommon.SessionUpdate) error {
			switch u.Action {
			case draftsyncCommon.ScanProgress:
				bar.SetCurrent(int64(u.Checked))
			case draftsyncCommon.ScanResult:
				if u.Result != nil {
					unhealthy++
					fmt.Printf("%s: %s (referenced by %d documents)\n",
						u.Result.Outcome, u.Result.URL, len(u.Result.ReferencingIDs))
				}
			case draftsyncCommon.ScanComplete:
				bar.SetCurrent(total)
				p.Wait()
				if unhealthy == 0 {
					fmt.Println("All resource URLs healthy.")
				} else {
					fmt.Printf("%d unhealthy resource URLs found.\n", unhealthy)
				}
				return draftcli.ErrDisconnect
			}
			return nil
		}),
	)
}

func schedule(ctx *cli.Context) error {
	id, err := sessionArg(ctx)
	if id == "" {
		return err
	}
	cron := ctx.Args().Get(1)
	if cron == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no cron expression provided"),
		)
	}
	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "schedule", "new_client", err)
		return nil
	}
	defer client.Close()

	r, err := client.ScheduleScan(id, cron)
	if err != nil {
		common.PrintRuntimeErr(ctx, "schedule", "schedule_scan", err)
		return nil
	}
	fmt.Printf("Recurring scan registered, next run at %s\n",
		r.NextRun.Format("2006-01-02 15:04:05"))
	return nil
}

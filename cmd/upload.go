package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/draftsync/draftsync/cmd/common"
	draftsyncCommon "github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/pkg/draftcli"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
)

func upload(ctx *cli.Context) error {
	id, err := sessionArg(ctx)
	if id == "" {
		return err
	}
	args := ctx.Args().Tail()
	if len(args) == 0 {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no files provided"),
		)
	}
	alts := altTexts
	files := make([]draftsyncCommon.UploadFileParam, len(args))
	for i, path := range args {
		abs, err := filepath.Abs(path)
		if err != nil {
			common.PrintRuntimeErr(ctx, "upload", "resolve_path", err)
			return nil
		}
		var alt string
		if i < len(alts) {
			alt = alts[i]
		}
		files[i] = draftsyncCommon.UploadFileParam{Path: abs, AltText: alt}
	}

	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "upload", "new_client", err)
		return nil
	}
	client.CheckVersionMismatch(currentBuildArgs.Version)

	if _, err = client.Attach(id); err != nil {
		common.PrintRuntimeErr(ctx, "upload", "client_attach", err)
		return nil
	}
	r, err := client.Upload(id, files)
	if err != nil {
		common.PrintRuntimeErr(ctx, "upload", "upload", err)
		return nil
	}
	for _, name := range r.Rejected {
		fmt.Printf("Rejected: %s\n", name)
	}
	if len(r.Accepted) == 0 {
		return nil
	}
	fmt.Println(">> Uploading attachments <<")
	registerUploadHandlers(client)
	return client.Listen()
}

// registerUploadHandlers wires progress bars to upload updates. Bars are
// created lazily per task id and the listener disconnects once the queue
// reports itself drained.
func registerUploadHandlers(client *draftcli.Client) {
	rr := time.Millisecond * 30
	p := mpb.New(mpb.WithWidth(64), mpb.WithRefreshRate(rr))
	bars := map[string]*mpb.Bar{}

	bar := func(taskId string) *mpb.Bar {
		b, ok := bars[taskId]
		if !ok {
			b = common.InitTaskBar(p, taskId[:8], 100)
			bars[taskId] = b
		}
		return b
	}

	client.RegisterHandler(
		draftsyncCommon.UPDATE_SESSION,
		draftcli.NewSessionUpdateHandler("", func(u *draftsyncCommon.SessionUpdate) error {
			switch u.Action {
			case draftsyncCommon.UploadProgress:
				bar(u.TaskId).SetCurrent(u.Value)
			case draftsyncCommon.UploadComplete:
				bar(u.TaskId).SetCurrent(100)
				fmt.Printf("Uploaded %s\n", u.Url)
			case draftsyncCommon.UploadState:
				if u.Status == "failed" {
					bar(u.TaskId).Abort(false)
					fmt.Printf("Failed %s: %s\n", u.TaskId, u.Message)
				}
			case draftsyncCommon.UploadDrained:
				p.Wait()
				fmt.Printf("Done (%d/%d uploaded)\n", u.Checked, u.Total)
				return draftcli.ErrDisconnect
			}
			return nil
		}),
	)
}

func uploads(ctx *cli.Context) error {
	id, err := sessionArg(ctx)
	if id == "" {
		return err
	}
	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "uploads", "new_client", err)
		return nil
	}
	defer client.Close()

	r, err := client.ListUploads(id)
	if err != nil {
		common.PrintRuntimeErr(ctx, "uploads", "list_uploads", err)
		return nil
	}
	if len(r.Items) == 0 {
		fmt.Println("Upload queue is empty.")
		return nil
	}
	fmt.Printf("%s|%s|%s|%s\n",
		common.Beaut("Task", 14),
		common.Beaut("File", 24),
		common.Beaut("Status", 12),
		common.Beaut("URL", 28),
	)
	for _, t := range r.Items {
		url := t.ResultURL
		if url == "" && t.Error != "" {
			url = t.Error
		}
		fmt.Printf("%s|%s|%s|%s\n",
			common.Beaut(t.ID[:8], 14),
			common.Beaut(t.FileName, 24),
			common.Beaut(string(t.Status), 12),
			common.Beaut(url, 28),
		)
	}
	return nil
}

func retryUpload(ctx *cli.Context) error {
	return taskAction(ctx, "retry", func(c *draftcli.Client, id, task string) error {
		_, err := c.RetryUpload(id, task)
		return err
	}, "Upload retry started.")
}

func removeUpload(ctx *cli.Context) error {
	return taskAction(ctx, "remove", func(c *draftcli.Client, id, task string) error {
		_, err := c.RemoveUpload(id, task)
		return err
	}, "Upload removed from queue.")
}

func clearUploads(ctx *cli.Context) error {
	id, err := sessionArg(ctx)
	if id == "" {
		return err
	}
	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "clear", "new_client", err)
		return nil
	}
	defer client.Close()

	if _, err = client.ClearUploads(id); err != nil {
		common.PrintRuntimeErr(ctx, "clear", "clear_uploads", err)
		return nil
	}
	fmt.Println("Completed uploads cleared.")
	return nil
}

func taskAction(ctx *cli.Context, name string, f func(*draftcli.Client, string, string) error, okMsg string) error {
	id, err := sessionArg(ctx)
	if id == "" {
		return err
	}
	task := ctx.Args().Get(1)
	if task == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no task id provided"),
		)
	}
	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, name, "new_client", err)
		return nil
	}
	defer client.Close()

	if err = f(client, id, task); err != nil {
		common.PrintRuntimeErr(ctx, name, name+"_upload", err)
		return nil
	}
	fmt.Println(okMsg)
	return nil
}

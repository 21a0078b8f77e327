package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/draftsync/draftsync/cmd/common"
	draftsyncCommon "github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/pkg/draftcli"
	"github.com/urfave/cli"
)

// sessionArg extracts the session id argument shared by most commands.
func sessionArg(ctx *cli.Context) (string, error) {
	id := ctx.Args().First()
	if id == "" {
		if ctx.Command.Name == "" {
			return "", common.Help(ctx)
		}
		return "", common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no session id provided"),
		)
	}
	if id == "help" {
		return "", cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	return id, nil
}

func sync(ctx *cli.Context) error {
	id, err := sessionArg(ctx)
	if id == "" {
		return err
	}
	fileName := ctx.Args().Get(1)
	if fileName == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no content file provided"),
		)
	}
	buf, err := os.ReadFile(fileName)
	if err != nil {
		common.PrintRuntimeErr(ctx, "sync", "read_file", err)
		return nil
	}

	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "sync", "new_client", err)
		return nil
	}
	defer client.Close()

	st, err := client.MarkDirty(id, string(buf))
	if err != nil {
		common.PrintRuntimeErr(ctx, "sync", "mark_dirty", err)
		return nil
	}
	printStatus(st)
	return nil
}

func save(ctx *cli.Context) error {
	id, err := sessionArg(ctx)
	if id == "" {
		return err
	}
	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "save", "new_client", err)
		return nil
	}
	defer client.Close()

	r, err := client.Save(id)
	if err != nil {
		common.PrintRuntimeErr(ctx, "save", "save", err)
		return nil
	}
	fmt.Printf("Save %s (version %s)\n", r.Status, r.Version)
	return nil
}

func status(ctx *cli.Context) error {
	id, err := sessionArg(ctx)
	if id == "" {
		return err
	}
	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "status", "new_client", err)
		return nil
	}
	defer client.Close()

	st, err := client.Status(id)
	if err != nil {
		common.PrintRuntimeErr(ctx, "status", "status", err)
		return nil
	}
	printStatus(st)
	return nil
}

func closeSession(ctx *cli.Context) error {
	id, err := sessionArg(ctx)
	if id == "" {
		return err
	}
	client, err := draftcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "close", "new_client", err)
		return nil
	}
	defer client.Close()

	if _, err = client.CloseSession(id); err != nil {
		common.PrintRuntimeErr(ctx, "close", "close_session", err)
		return nil
	}
	fmt.Println("Session closed.")
	return nil
}

func printStatus(st *draftsyncCommon.EditStatusResponse) {
	dirty := "clean"
	if st.Dirty {
		dirty = "dirty"
	}
	fmt.Printf(`
Session Info
Session`+"\t\t"+`: %s
Document`+"\t"+`: %s
Status`+"\t\t"+`: %s (%s)
Version`+"\t\t"+`: %s
Uploads`+"\t\t"+`: %s
`,
		st.SessionId,
		st.DocumentId,
		st.Status, dirty,
		st.Version,
		st.Uploads,
	)
}

package cmd

import (
	"fmt"
	"runtime"

	"github.com/draftsync/draftsync/cmd/common"
	"github.com/urfave/cli"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	app := cli.App{
		Name:                  "draftsync",
		HelpName:              "draftsync",
		Usage:                 "A resilient draft synchronization daemon.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "draftsync <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: []cli.Command{
			{
				Name:   "daemon",
				Usage:  "runs the draftsync daemon in the foreground",
				Action: daemon,
				Flags:  daemonFlags,
			},
			{
				Name:   "stop-daemon",
				Usage:  "stops a running draftsync daemon",
				Action: stopDaemon,
			},
			{
				Name:                   "open",
				Aliases:                []string{"o"},
				Usage:                  "starts an editing session for a document",
				Action:                 open,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            OpenDescription,
				UseShortOptionHandling: true,
				Flags:                  openFlags,
			},
			{
				Name:               "sync",
				Usage:              "pushes document content and marks the session dirty",
				Action:             sync,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        SyncDescription,
			},
			{
				Name:               "save",
				Aliases:            []string{"s"},
				Usage:              "forces an immediate save of a session",
				Action:             save,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        SaveDescription,
			},
			{
				Name:               "status",
				Usage:              "shows the state of an editing session",
				Action:             status,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        StatusDescription,
			},
			{
				Name:               "close",
				Usage:              "ends an editing session",
				Action:             closeSession,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        CloseDescription,
			},
			{
				Name:               "attach",
				Usage:              "streams live session updates to the terminal",
				Action:             attach,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        AttachDescription,
			},
			{
				Name:                   "upload",
				Aliases:                []string{"u"},
				Usage:                  "queues attachment files for background upload",
				Action:                 upload,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            UploadDescription,
				UseShortOptionHandling: true,
				Flags:                  uploadFlags,
			},
			{
				Name:               "uploads",
				Aliases:            []string{"l"},
				Usage:              "lists the upload queue of a session",
				Action:             uploads,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        UploadsDescription,
			},
			{
				Name:   "retry",
				Usage:  "retries a failed upload task",
				Action: retryUpload,
			},
			{
				Name:   "remove",
				Usage:  "removes a pending or failed upload task",
				Action: removeUpload,
			},
			{
				Name:   "clear",
				Usage:  "clears completed uploads from a session's queue",
				Action: clearUploads,
			},
			{
				Name:                   "scan",
				Usage:                  "checks embedded resource links for rot",
				Action:                 scan,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            ScanDescription,
				UseShortOptionHandling: true,
				Flags:                  scanFlags,
			},
			{
				Name:               "schedule",
				Usage:              "registers a recurring resource scan",
				Action:             schedule,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        ScheduleDescription,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of draftsync",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      common.Help,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}

package cmd

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`

const DESCRIPTION = `
DraftSync is a resilient draft synchronization daemon. It keeps
long-form documents safe while you edit: changes are auto-saved
with debouncing and conflict detection, attachments are compressed
and uploaded in the background, and embedded resource links are
periodically checked for rot.
`

const (
	OpenDescription = `The open command starts an editing session for a document.
The daemon debounces auto-saves, detects version conflicts and
keeps a local draft copy so unsaved work survives crashes. The
returned session id is used by every other command.

Example:
        draftsync open --doc post-42 --version 3 article.md

`
	SyncDescription = `The sync command pushes the current document content into an
editing session and marks it dirty, scheduling a debounced
auto-save.

Example:
        draftsync sync <session id> article.md

`
	SaveDescription = `The save command flushes an editing session immediately,
bypassing the debounce timer. It blocks until the save completes
and prints the new document version.

Example:
        draftsync save <session id>

`
	StatusDescription = `The status command displays the save state, dirty flag, current
version and upload queue summary of an editing session.

Example:
        draftsync status <session id>

`
	CloseDescription = `The close command ends an editing session. A cleanly saved
session also discards its local draft copy.

Example:
        draftsync close <session id>

`
	AttachDescription = `The attach command streams live updates of an editing session
to the terminal until interrupted.

Example:
        draftsync attach <session id>

`
	UploadDescription = `The upload command queues attachment files for background
upload. Files are compressed and transmitted sequentially; failed
uploads can be retried with "draftsync retry".

Example:
        draftsync upload <session id> image.png diagram.svg

`
	UploadsDescription = `The uploads command lists the upload queue of an editing
session along with per-task state and result URLs.

Example:
        draftsync uploads <session id>

`
	ScanDescription = `The scan command checks every resource URL embedded in the
given documents and reports broken or unreachable links. Results
stream to the terminal as each URL is probed.

Example:
        draftsync scan <session id> article.md appendix.md

`
	ScheduleDescription = `The schedule command registers a recurring resource scan for an
editing session using a 5-field cron expression. Each run repeats
the session's most recent scan.

Example:
        draftsync schedule <session id> "0 3 * * *"

`
)

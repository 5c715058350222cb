package workflow

// Hosted runner labels.
const (
	RunnerSelfHosted    = "self-hosted"
	RunnerUbuntuLatest  = "ubuntu-latest"
	RunnerUbuntu2404    = "ubuntu-24.04"
	RunnerUbuntu2204    = "ubuntu-22.04"
	RunnerUbuntu2004    = "ubuntu-20.04"
	RunnerWindowsLatest = "windows-latest"
	RunnerWindows2022   = "windows-2022"
	RunnerWindows2019   = "windows-2019"
	RunnerMacOSLatest   = "macos-latest"
	RunnerMacOS14       = "macos-14"
	RunnerMacOS13       = "macos-13"
	RunnerMacOS12       = "macos-12"
)

// Shells accepted by run steps.
const (
	ShellBash       = "bash"
	ShellPwsh       = "pwsh"
	ShellPython     = "python"
	ShellSh         = "sh"
	ShellCmd        = "cmd"
	ShellPowershell = "powershell"
)

// Trigger event names.
const (
	EventPush               = "push"
	EventPullRequest        = "pull_request"
	EventPullRequestTarget  = "pull_request_target"
	EventSchedule           = "schedule"
	EventWorkflowDispatch   = "workflow_dispatch"
	EventWorkflowCall       = "workflow_call"
	EventWorkflowRun        = "workflow_run"
	EventRelease            = "release"
	EventIssues             = "issues"
	EventIssueComment       = "issue_comment"
	EventMergeGroup         = "merge_group"
	EventRepositoryDispatch = "repository_dispatch"
)

// Whole-token permission presets.
const (
	PermissionsReadAll  = "read-all"
	PermissionsWriteAll = "write-all"
)

// SecretsInherit passes every caller secret to a reusable workflow.
const SecretsInherit = "inherit"

// Access is a per-scope permission level.
type Access string

const (
	AccessRead  Access = "read"
	AccessWrite Access = "write"
	AccessNone  Access = "none"
)

package domain

const (
	tabWidthFlag   = "--tab-width=4"
	extensionsFlag = "--extensions=php,inc"
	noWarningsFlag = "-n"
	reportJSONFlag = "--report-json"
)

// Tools locates the analysis and fix executables. When PHP is set the tools
// are run as scripts through that interpreter.
type Tools struct {
	PHP    string `yaml:"php"    json:"php,omitempty"`
	Phpcs  string `yaml:"phpcs"  json:"phpcs"`
	Phpcbf string `yaml:"phpcbf" json:"phpcbf"`
}

// DefaultTools resolves both tools from PATH.
func DefaultTools() Tools {
	return Tools{Phpcs: "phpcs", Phpcbf: "phpcbf"}
}

// Command is a fully resolved process invocation.
type Command struct {
	Path string
	Args []string
}

// AnalyzeCommand builds the analysis invocation for one file.
func (t Tools) AnalyzeCommand(ruleset Ruleset, file string) Command {
	return t.command(t.Phpcs,
		tabWidthFlag,
		extensionsFlag,
		noWarningsFlag,
		"--standard="+string(ruleset),
		reportJSONFlag,
		file,
	)
}

// FixCommand builds the auto-fix invocation for one file.
func (t Tools) FixCommand(ruleset Ruleset, file string) Command {
	return t.command(t.Phpcbf,
		"--standard="+string(ruleset),
		noWarningsFlag,
		file,
	)
}

// InfoCommand asks the analysis tool which standards it has installed.
func (t Tools) InfoCommand() Command {
	return t.command(t.Phpcs, "-i")
}

func (t Tools) command(tool string, args ...string) Command {
	if t.PHP == "" {
		return Command{Path: tool, Args: args}
	}
	return Command{Path: t.PHP, Args: append([]string{tool}, args...)}
}

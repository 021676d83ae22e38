package cmd

import (
	"fmt"
	"strings"
)

var completionCommands = []string{
	"ls", "show", "add", "set", "unset", "mv", "rename", "rm", "search",
	"task", "tui", "doctor", "init", "backup", "completion", "version", "help",
}

var completionTaskCommands = []string{"add", "ls", "done", "dismiss", "reopen", "tag", "untag"}

// completionCommand prints a completion script for the given shell.
func completionCommand(a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: tagtree completion <bash|zsh|fish|powershell>", errUsage)
	}
	cmds := strings.Join(completionCommands, " ")
	taskCmds := strings.Join(completionTaskCommands, " ")

	switch strings.ToLower(args[0]) {
	case "bash":
		fmt.Fprintf(a.out, bashCompletion, cmds, taskCmds)
	case "zsh":
		fmt.Fprintf(a.out, zshCompletion, cmds, taskCmds)
	case "fish":
		fmt.Fprintf(a.out, fishCompletion, cmds, cmds, taskCmds)
	case "powershell", "pwsh":
		fmt.Fprintf(a.out, powershellCompletion, quoteList(completionCommands))
	default:
		return fmt.Errorf("unsupported shell: %s", args[0])
	}
	return nil
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}

const bashCompletion = `# tagtree bash completion
_tagtree() {
    local cur prev
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    if [ "$prev" = "task" ]; then
        COMPREPLY=( $(compgen -W "%[2]s" -- "$cur") )
        return
    fi
    if [ "$COMP_CWORD" -eq 1 ]; then
        COMPREPLY=( $(compgen -W "%[1]s" -- "$cur") )
    fi
}
complete -F _tagtree tagtree
`

const zshCompletion = `#compdef tagtree
# tagtree zsh completion
_tagtree() {
    if (( CURRENT == 2 )); then
        compadd %[1]s
    elif [[ ${words[2]} == task && CURRENT == 3 ]]; then
        compadd %[2]s
    fi
}
compdef _tagtree tagtree
`

const fishCompletion = `# tagtree fish completion
complete -c tagtree -f
complete -c tagtree -n "not __fish_seen_subcommand_from %s" -a "%s"
complete -c tagtree -n "__fish_seen_subcommand_from task" -a "%s"
`

const powershellCompletion = `# tagtree PowerShell completion
Register-ArgumentCompleter -Native -CommandName tagtree -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)
    @(%s) | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
    }
}
`

package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: jobcraft <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate   Generate a resume or cover letter for a job posting")
	fmt.Fprintln(w, "  serve      Serve document generation over HTTP")
	fmt.Fprintln(w, "  styles     List design styles")
	fmt.Fprintln(w, "  doctor     Check Chrome, credentials and paths")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'jobcraft help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <path>       Config file (default: jobcraft.yaml, then user config dir)")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Debug logging")
	fmt.Fprintln(w, "      --log-format <s>      Log format: text, json")
}

// printGenerateUsage prints usage for the generate command.
func printGenerateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: jobcraft generate <job-url> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetch a job posting and write a tailored PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "  -s, --style <s>           Design style: classic, modern, sidebar")
	fmt.Fprintln(w, "  -k, --kind <s>            Document kind: resume, cover-letter")
	fmt.Fprintln(w, "      --profile <path>      Candidate profile YAML")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory (default: output.dir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Model:")
	fmt.Fprintln(w, "  -p, --provider <s>        Provider: openai, anthropic, gemini, ollama")
	fmt.Fprintln(w, "  -m, --model <s>           Model name for the provider")
	fmt.Fprintln(w, "      --fallback <s>        On provider failure: deterministic, fail")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --backend <s>         PDF renderer: rod, chromedp")
	fmt.Fprintln(w, "  -t, --timeout <d>         Render timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "API keys are read from OPENAI_API_KEY, ANTHROPIC_API_KEY and GEMINI_API_KEY only.")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: jobcraft serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve POST /v1/documents, GET /v1/styles, GET /healthz and GET /metrics.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default: server.addr)")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: jobcraft doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, provider credentials and file locations.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Machine-readable output")
	fmt.Fprintln(w, "  -c, --config <path>       Config file")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "generate", "gen":
		printGenerateUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "styles":
		fmt.Fprintln(env.Stdout, "Usage: jobcraft styles")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "List design styles.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: jobcraft version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: jobcraft help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}

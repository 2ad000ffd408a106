// Command mplc is the CLI surface for the MPL compiler (spec §6): compile
// an MPL source file to a standard MIDI file, dump its tick-ordered event
// list for debugging, or inspect the active note/percussion dictionary.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"mplc/compiler"
	"mplc/dict"
	"mplc/report"
	"mplc/strudelexport"
)

// dictPath is set via --dict/-d or the MPLC_DICT environment variable.
var dictPath string

func main() {
	args := parseArgs(os.Args[1:])

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	switch command {
	case "compile":
		if len(args) < 2 {
			fmt.Println("Error: compile requires an MPL file")
			printUsage()
			os.Exit(1)
		}
		outputPath := ""
		if len(args) >= 3 {
			outputPath = args[2]
		}
		compileCommand(args[1], outputPath)
	case "dump":
		if len(args) < 2 {
			fmt.Println("Error: dump requires an MPL file")
			printUsage()
			os.Exit(1)
		}
		outputPath := ""
		if len(args) >= 3 {
			outputPath = args[2]
		}
		dumpCommand(args[1], outputPath)
	case "dict":
		dictCommand()
	default:
		printUsage()
		os.Exit(1)
	}
}

// parseArgs extracts --dict/-d and --help/-h, returning the remaining
// positional args (same shape as the teacher's --soundfont handling).
func parseArgs(args []string) []string {
	var remaining []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--dict" || arg == "-d":
			if i+1 < len(args) {
				dictPath = args[i+1]
				i++
			} else {
				fmt.Println("Error: --dict requires a path")
				os.Exit(1)
			}
		case strings.HasPrefix(arg, "--dict="):
			dictPath = strings.TrimPrefix(arg, "--dict=")
		case strings.HasPrefix(arg, "-d="):
			dictPath = strings.TrimPrefix(arg, "-d=")
		case arg == "--help" || arg == "-h":
			printUsage()
			os.Exit(0)
		default:
			remaining = append(remaining, arg)
		}
	}

	if dictPath == "" {
		dictPath = os.Getenv("MPLC_DICT")
	}
	return remaining
}

func loadDictionary() *dict.Dictionary {
	if dictPath == "" {
		d, err := dict.Default()
		if err != nil {
			fmt.Printf("Error loading default dictionary: %v\n", err)
			os.Exit(1)
		}
		return d
	}
	data, err := os.ReadFile(dictPath)
	if err != nil {
		fmt.Printf("Error reading dictionary %s: %v\n", dictPath, err)
		os.Exit(1)
	}
	d, err := dict.Load(data)
	if err != nil {
		fmt.Printf("Error parsing dictionary %s: %v\n", dictPath, err)
		os.Exit(1)
	}
	return d
}

func compileCommand(filename, outputPath string) {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", filename, err)
		os.Exit(1)
	}

	res, err := compiler.Compile(source, filename, compiler.Options{Dictionary: loadDictionary()})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	showSummary(filename, res)

	if outputPath == "" {
		base := filepath.Base(filename)
		ext := filepath.Ext(base)
		outputPath = strings.TrimSuffix(base, ext) + ".mid"
	}

	out, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("Error creating %s: %v\n", outputPath, err)
		os.Exit(1)
	}
	defer out.Close()

	if _, err := res.Sequence.WriteTo(out); err != nil {
		fmt.Printf("Error writing %s: %v\n", outputPath, err)
		os.Exit(1)
	}

	fmt.Printf("\n✓ Compiled to: %s\n", outputPath)
}

func dumpCommand(filename, outputPath string) {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", filename, err)
		os.Exit(1)
	}

	res, err := compiler.Compile(source, filename, compiler.Options{Dictionary: loadDictionary()})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	text := strudelexport.Dump(filename, res.Sequence)

	if outputPath == "" {
		fmt.Print(text)
		return
	}
	if err := os.WriteFile(outputPath, []byte(text), 0644); err != nil {
		fmt.Printf("Error writing %s: %v\n", outputPath, err)
		os.Exit(1)
	}
	fmt.Printf("✓ Dumped to: %s\n", outputPath)
}

func dictCommand() {
	d := loadDictionary()
	fmt.Println("Active dictionary loaded.")
	if dictPath != "" {
		fmt.Printf("Source: %s\n", dictPath)
	} else {
		fmt.Println("Source: compiled-in default")
	}
	_ = d
}

func showSummary(filename string, res *compiler.Result) {
	instruments := make([]report.InstrumentLine, 0, len(res.Instruments))
	for _, inst := range res.Instruments {
		instruments = append(instruments, report.InstrumentLine{
			Channel: inst.Channel,
			Program: inst.Program,
			Name:    inst.Name,
		})
	}
	summary := report.Summary{
		SourceFile:  filename,
		Resolution:  compiler.DefaultResolution,
		Instruments: instruments,
		Warnings:    res.Warnings,
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(report.Box(summary))
	} else {
		fmt.Print(report.Plain(summary))
	}
}

func printUsage() {
	fmt.Println("mplc - MPL to MIDI compiler")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mplc compile <file.mpl> [out.mid]   Compile to a standard MIDI file")
	fmt.Println("  mplc dump <file.mpl> [out.txt]       Dump the tick-ordered event list")
	fmt.Println("  mplc dict                            Show the active note dictionary source")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --dict, -d <path>   Use a custom note/percussion/keyword dictionary")
	fmt.Println("  --help, -h          Show this help")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  MPLC_DICT           Default dictionary path")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  mplc compile song.mpl")
	fmt.Println("  mplc compile song.mpl out.mid")
	fmt.Println("  mplc dump song.mpl")
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agalakhov/millsim/internal/cli"
	"github.com/agalakhov/millsim/internal/export"
	"github.com/agalakhov/millsim/internal/gcode"
	"github.com/agalakhov/millsim/internal/machine"
	"github.com/agalakhov/millsim/internal/render"
)

var command = &cobra.Command{
	Use:  "millsim program [--svg drawing.svg] [--gcode out.ngc]",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(run(cmd, args[0]))
	},
}

func init() {
	command.PersistentFlags().String("svg", "", "write the toolpath drawing to this file")
	command.PersistentFlags().String("gcode", "", "write normalized portable G-code to this file")
	command.PersistentFlags().Int("program", -1, "main program number to execute (default: lowest)")
	command.PersistentFlags().String("config", "", "machine limits YAML file")
	command.PersistentFlags().Bool("echo", false, "print each executed line")
	command.PersistentFlags().BoolP("quiet", "q", false, "suppress the summary")
	command.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func run(cmd *cobra.Command, path string) int {
	flags := cmd.PersistentFlags()
	svgPath, _ := flags.GetString("svg")
	gcodePath, _ := flags.GetString("gcode")
	programNo, _ := flags.GetInt("program")
	configPath, _ := flags.GetString("config")
	echo, _ := flags.GetBool("echo")
	quiet, _ := flags.GetBool("quiet")
	verbose, _ := flags.GetBool("verbose")

	if verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg := machine.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = machine.LoadConfig(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return cli.ExitUsage
		}
	}
	if programNo > 255 || (programNo < 0 && programNo != -1) {
		fmt.Fprintf(os.Stderr, "Error: program number %d out of range\n", programNo)
		return cli.ExitUsage
	}

	file, lerr := gcode.Load(path)
	if lerr != nil {
		return cli.PrintError(lerr)
	}
	slog.Debug("loaded program file", "path", path, "lines", len(file.Lines))

	prog, lerr := machine.ProgramFromFile(file)
	if lerr != nil {
		return cli.PrintError(lerr)
	}
	slog.Debug("structured program", "mains", prog.Mains(), "subs", prog.Subs())

	var ex *machine.Executor
	var serr *gcode.SimpleError
	if programNo >= 0 {
		ex, serr = prog.ExecuteProgram(uint8(programNo))
	} else {
		ex, serr = prog.Execute()
	}
	if serr != nil {
		return cli.PrintError(serr.NoLine())
	}

	var renderers []render.Renderer
	if svgPath != "" {
		renderers = append(renderers, render.NewSVG(svgPath))
	}
	if gcodePath != "" {
		renderers = append(renderers, export.NewGenerator(gcodePath))
	}
	var sink render.Renderer = render.Nop{}
	if len(renderers) > 0 {
		sink = render.Multi(renderers...)
	}

	m := machine.New(cfg, sink)
	for ex.Next() {
		if echo {
			fmt.Println(ex.Command().RawString())
		}
		if serr := m.Execute(ex.Command()); serr != nil {
			return cli.PrintError(serr.AtLine(ex.Line()))
		}
	}
	if lerr := ex.Err(); lerr != nil {
		return cli.PrintError(lerr)
	}

	if err := sink.Finalize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.ExitError
	}

	if !quiet {
		cli.PrintSummary(m.Stats())
	}
	return cli.ExitOK
}

func main() {
	if err := command.Execute(); err != nil {
		os.Exit(cli.ExitUsage)
	}
}

// Command dgctl is a small introspection CLI for a detectorgraph
// application: a Cobra root command with viper-bound flags and a
// $HOME-resolved YAML config, rendering a graph's topology for local
// debugging. It lives outside the core engine package boundary; no CLI
// concern belongs in the core.
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/evalgraph/detectorgraph/detector"
	"github.com/evalgraph/detectorgraph/dgconfig"
	"github.com/evalgraph/detectorgraph/dglog"
	"github.com/evalgraph/detectorgraph/graph"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dgctl",
	Short: "introspection CLI for a detectorgraph dataflow graph",
	Long: `dgctl loads engine configuration and renders graph topology.

It does not build application graphs itself: a self-test graph of one
detector is used by "topology" when no application wires its own
graph in, purely to exercise the scheduler and prove the CLI is
reachable end to end.`,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.detectorgraphrc.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("lite", false, "enable bounded topic storage")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("lite", rootCmd.PersistentFlags().Lookup("lite"))

	rootCmd.AddCommand(versionCmd, topologyCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print dgctl's version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("dgctl (detectorgraph) dev")
	},
}

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "dump the self-test graph's detectors and edges as an indented tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := dgconfig.Load(cfgFile)
		if err != nil {
			return err
		}
		if lvl := viper.GetString("log_level"); lvl != "" {
			opts.LogLevel = dglog.Level(lvl)
		}
		if viper.GetBool("lite") {
			opts.Lite = true
		}
		log := dglog.New(dglog.Config{Level: opts.LogLevel, Format: opts.LogFormat})

		g := graph.New()
		g.SetLogger(log)
		if opts.Lite {
			g.EnableLite(opts.LiteCapacity)
		}
		buildSelfTestGraph(g)
		if err := g.EvaluateGraph(); err != nil {
			return err
		}

		detectors := g.Detectors()
		edges := g.Edges()
		fmt.Printf("detectors (%s):\n", humanize.Comma(int64(len(detectors))))
		for _, d := range detectors {
			fmt.Printf("  - %s\n", d.ID)
		}
		fmt.Printf("edges (%s):\n", humanize.Comma(int64(len(edges))))
		for _, e := range edges {
			producer := e.ProducerID
			if producer == "" {
				producer = "(external input)"
			}
			mark := ""
			if e.Backedge {
				mark = " [lag]"
			}
			fmt.Printf("  - %s -> %s : %s%s\n", producer, e.SubID, e.TopicType, mark)
		}
		return nil
	},
}

// echoDetector is the self-test graph's single node: it republishes
// whatever int it observes, letting "topology" exercise subscribe/publish
// wiring without pulling in any application's domain logic.
type echoDetector struct {
	detector.Base
	in  *int
	out interface{ Publish(int) }
}

func (e *echoDetector) Evaluate(v int) { e.in = &v }

func (e *echoDetector) CompleteEvaluation() {
	if e.in != nil {
		e.out.Publish(*e.in)
	}
	e.in = nil
}

func buildSelfTestGraph(g *graph.Graph) {
	d := &echoDetector{}
	graph.Subscribe[int](g, d, d)
	d.out = graph.SetupPublishing[int](g, d)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

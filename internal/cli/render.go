package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/MetalBlueberry/go-plotly/offline"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"autosales/internal/core"
	"autosales/internal/view"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatHTML = "html"

	chartStatus = "status"
)

type renderOptions struct {
	chart   string
	vehicle string
	year    int
	format  string
	out     string
}

// statusDoc is the json/yaml form of the status output.
type statusDoc struct {
	VehicleType core.VehicleType `json:"vehicle_type" yaml:"vehicle_type"`
	Year        int              `json:"year" yaml:"year"`
	Status      string           `json:"status" yaml:"status"`
}

func newRenderCmd() *cobra.Command {
	def := core.DefaultSelection()
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one dashboard output without starting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadAndValidateConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := SetupLogger(cfg, cmd)
			if err != nil {
				return err
			}

			sel, err := opts.selection()
			if err != nil {
				return err
			}
			if err := opts.validate(); err != nil {
				return err
			}

			result, err := InitBackend(cmd.Context(), logger, cfg)
			if err != nil {
				return err
			}
			if result.Cleanup != nil {
				defer result.Cleanup()
			}

			svc := view.NewService(result.Backend, view.DefaultOptions())
			if opts.chart == chartStatus {
				doc := statusDoc{VehicleType: sel.VehicleType, Year: sel.Year, Status: svc.Status(sel.VehicleType, sel.Year)}
				return opts.write(cmd.OutOrStdout(), doc, doc.Status)
			}

			kind, _ := view.ParseChartKind(opts.chart)
			spec := svc.Chart(cmd.Context(), kind, sel.VehicleType)
			if opts.format == formatHTML {
				offline.ToHtml(view.Figure(spec), opts.out)
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.out)
				return nil
			}
			return opts.write(cmd.OutOrStdout(), spec, spec.Title)
		},
	}

	addDataFlags(cmd)
	cmd.Flags().StringVar(&opts.chart, "chart", string(view.RecessionKind), "output to render: recession, yearly or status")
	cmd.Flags().StringVar(&opts.vehicle, "vehicle", def.VehicleType.String(), "vehicle type")
	cmd.Flags().IntVar(&opts.year, "year", def.Year, "selected year (status only)")
	cmd.Flags().StringVar(&opts.format, "format", formatJSON, "output format: json, yaml or html")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write to this file instead of stdout (required for html)")
	return cmd
}

func (o renderOptions) selection() (core.Selection, error) {
	vt, err := core.ParseVehicleType(o.vehicle)
	if err != nil {
		return core.Selection{}, err
	}
	sel := core.Selection{VehicleType: vt, Year: o.year}
	if err := sel.Validate(); err != nil {
		return core.Selection{}, err
	}
	return sel, nil
}

func (o renderOptions) validate() error {
	if o.chart != chartStatus {
		if _, err := view.ParseChartKind(o.chart); err != nil {
			return fmt.Errorf("--chart: %w", err)
		}
	}
	switch o.format {
	case formatJSON, formatYAML:
	case formatHTML:
		if o.chart == chartStatus {
			return errors.New("--format html only applies to charts")
		}
		if o.out == "" {
			return errors.New("--format html requires --out")
		}
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}
	return nil
}

// write encodes v in the chosen format to --out or stdout.
func (o renderOptions) write(stdout io.Writer, v any, summary string) error {
	w := stdout
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", o.out, err)
		}
		defer f.Close()
		w = f
	}

	var err error
	switch o.format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(v)
		if err == nil {
			err = enc.Close()
		}
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", o.format, err)
	}
	if o.out != "" {
		fmt.Fprintf(stdout, "wrote %s (%s)\n", o.out, summary)
	}
	return nil
}

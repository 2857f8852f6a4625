package main

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lovenotes/anniversary/internal/assets"
	"github.com/lovenotes/anniversary/internal/content"
)

func newShowCmd(env func() *cliEnv) *cobra.Command {
	var asJSON, storedOnly bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print every field value (defaults filled in)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := env()
			doc := e.content.Load(cmd.Context())
			if !storedOnly {
				doc = doc.Resolve(e.schema)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}
			// schema order reads better than map order
			out := yaml.Node{Kind: yaml.MappingNode}
			for _, f := range e.schema.Fields() {
				v, ok := doc[f.ID]
				if !ok {
					continue
				}
				out.Content = append(out.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.ID},
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(&out)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	cmd.Flags().BoolVar(&storedOnly, "stored", false, "print only stored keys, without defaults")
	return cmd
}

func newGetCmd(env func() *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "get <field>",
		Short: "Print the effective value of one field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := env()
			f, ok := e.schema.Field(args[0])
			if !ok {
				return fmt.Errorf("unknown field %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.content.Load(cmd.Context()).Value(f))
			return nil
		},
	}
}

func newSetCmd(env func() *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "set <field> <value> [<field> <value>...]",
		Short: "Merge-write field values",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected field/value pairs, got %d args", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			e := env()
			updates := make(content.Document, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				f, ok := e.schema.Field(args[i])
				if !ok {
					return fmt.Errorf("unknown field %q", args[i])
				}
				if f.Kind == content.KindImage {
					return fmt.Errorf("field %q takes an image; use upload", args[i])
				}
				updates[args[i]] = args[i+1]
			}
			if err := e.content.Save(cmd.Context(), updates); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d field(s)\n", len(updates))
			return nil
		},
	}
}

func newSchemaCmd(env func() *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the field schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(env().schema)
		},
	}
}

func newUploadCmd(env func() *cliEnv) *cobra.Command {
	var crop []int
	cmd := &cobra.Command{
		Use:   "upload <field> <file>",
		Short: "Upload an image and store its URL in an image field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, path := args[0], args[1]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			var sel *image.Rectangle
			if len(crop) > 0 {
				if len(crop) != 4 {
					return fmt.Errorf("--crop wants x,y,w,h")
				}
				r := image.Rect(crop[0], crop[1], crop[0]+crop[2], crop[1]+crop[3])
				sel = &r
			}

			ctrl := env().manager.NewController()
			if _, err := ctrl.Stage(field, assets.Payload{Name: filepath.Base(path), Data: data}, sel); err != nil {
				return err
			}
			written, err := ctrl.Save(cmd.Context(), nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", field, written[field])
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&crop, "crop", nil, "crop rectangle x,y,w,h in source pixels")
	return cmd
}

func newElapsedCmd(env func() *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "elapsed",
		Short: "Print the time since the stored start date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := env().manager
			p := m.View(cmd.Context())
			el := m.Elapsed(time.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "since %s: %02d years %02d months %02d days %02d hours %02d minutes %02d seconds",
				p.StartDate, el.Years, el.Months, el.Days, el.Hours, el.Minutes, el.Seconds)
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

package commands

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/audio"
	"github.com/dotcommander/kudos/internal/output"
)

// NewSoundsCmd creates the sounds command group.
func NewSoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sounds",
		Short: "Manage celebration sound packs",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newSoundsListCmd())
	cmd.AddCommand(newSoundsExtractCmd())
	return cmd
}

func newSoundsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed sound packs and their files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.SoundsDir()
			if err != nil {
				return cmdErr(err)
			}

			type pack struct {
				Name  string   `json:"name"`
				Files []string `json:"files"`
			}
			type resp struct {
				Dir   string `json:"dir"`
				Packs []pack `json:"packs"`
			}

			out := resp{Dir: dir, Packs: []pack{}}
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					return output.PrintSuccess(out)
				}
				return cmdErr(err)
			}
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				p := pack{Name: e.Name(), Files: []string{}}
				files, err := os.ReadDir(filepath.Join(dir, e.Name()))
				if err == nil {
					for _, f := range files {
						if !f.IsDir() {
							p.Files = append(p.Files, f.Name())
						}
					}
				}
				sort.Strings(p.Files)
				out.Packs = append(out.Packs, p)
			}
			return output.PrintSuccess(out)
		},
	}
}

func newSoundsExtractCmd() *cobra.Command {
	var packName string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Write the built-in generated tones into a sound pack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _ := app.LoadSettings()
			if packName == "" {
				packName = settings.Audio.SoundPack
			}

			dir, err := app.SoundsDir()
			if err != nil {
				return cmdErr(err)
			}
			packDir := filepath.Join(dir, packName)
			paths, err := audio.ExtractAll(packDir, settings.Audio.Volume)
			if err != nil {
				return cmdErr(err)
			}

			type resp struct {
				Pack  string   `json:"pack"`
				Dir   string   `json:"dir"`
				Files []string `json:"files"`
			}
			files := make([]string, 0, len(paths))
			for _, p := range paths {
				files = append(files, filepath.Base(p))
			}
			return output.PrintSuccess(resp{Pack: packName, Dir: packDir, Files: files})
		},
	}

	cmd.Flags().StringVar(&packName, "pack", "", "Sound pack name (default: configured pack)")
	return cmd
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shokofin/internal/filestore"
)

func newFilesCommand(ctx *commandContext) *cobra.Command {
	var episodeID int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List files recorded from the change feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := filestore.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var files []filestore.File
			if episodeID > 0 {
				files, err = store.FilesForEpisode(cmd.Context(), episodeID)
			} else {
				files, err = store.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, files)
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No tracked files")
				return nil
			}
			rows := make([][]string, 0, len(files))
			for _, file := range files {
				rows = append(rows, []string{
					strconv.Itoa(file.FileID),
					strconv.Itoa(file.ImportFolderID),
					file.RelativePath,
					strconv.Itoa(len(file.CrossReferences)),
					string(file.ReferenceSource),
					string(file.LastEvent),
					file.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Folder", "Path", "Refs", "Source", "Last Event", "Updated"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&episodeID, "episode", 0, "Only list files linked to this Shoko episode id")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print files as JSON")
	return cmd
}

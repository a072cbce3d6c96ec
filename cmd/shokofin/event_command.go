package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shokofin/internal/fileevents"
)

type decodedEvent struct {
	Kind                 fileevents.Kind            `json:"kind"`
	File                 *fileevents.FileEvent      `json:"file"`
	RelativePath         string                     `json:"relative_path"`
	ReferenceSource      fileevents.ReferenceSource `json:"reference_source"`
	PreviousFolderID     *int                       `json:"previous_import_folder_id,omitempty"`
	PreviousRelativePath string                     `json:"previous_relative_path,omitempty"`
}

func newEventCommand() *cobra.Command {
	eventCmd := &cobra.Command{
		Use:         "event",
		Short:       "Change-feed payload utilities",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	eventCmd.AddCommand(newEventDecodeCommand())
	return eventCmd
}

func newEventDecodeCommand() *cobra.Command {
	var kindFlag string
	var jsonOut bool

	kinds := make([]string, 0, len(fileevents.Kinds()))
	for _, kind := range fileevents.Kinds() {
		kinds = append(kinds, string(kind))
	}

	cmd := &cobra.Command{
		Use:   "decode [payload-file]",
		Short: "Decode a file notification payload (reads stdin when no file or \"-\" is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := fileevents.ParseKind(strings.TrimSpace(kindFlag))
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd, args)
			if err != nil {
				return err
			}
			env, err := fileevents.Decode(kind, payload)
			if err != nil {
				return err
			}

			view := decodedEvent{
				Kind:            env.Kind,
				File:            env.File,
				RelativePath:    env.File.RelativePath(),
				ReferenceSource: env.File.ReferenceSource(),
			}
			if env.Moved != nil {
				previous := env.Moved.PreviousImportFolderID
				view.PreviousFolderID = &previous
				view.PreviousRelativePath = env.Moved.PreviousRelativePath()
			}
			if jsonOut {
				return writeJSON(cmd, view)
			}
			renderDecodedEvent(cmd.OutOrStdout(), view)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", string(fileevents.KindMatched), "Notification kind ("+strings.Join(kinds, ", ")+")")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the decoded event as JSON")
	return cmd
}

func readPayload(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read payload from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

func renderDecodedEvent(out io.Writer, view decodedEvent) {
	file := view.File
	rows := [][]string{
		{"Kind", string(view.Kind)},
		{"File ID", strconv.Itoa(file.FileID)},
		{"Import folder", strconv.Itoa(file.ImportFolderID)},
		{"Internal path", file.InternalPath},
		{"Relative path", view.RelativePath},
		{"References", fmt.Sprintf("%d (%s)", len(file.CrossReferences), view.ReferenceSource)},
	}
	if file.FileLocationID != nil {
		rows = append(rows, []string{"File location", strconv.Itoa(*file.FileLocationID)})
	}
	if view.PreviousFolderID != nil {
		rows = append(rows,
			[]string{"Previous folder", strconv.Itoa(*view.PreviousFolderID)},
			[]string{"Previous path", view.PreviousRelativePath},
		)
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

	if len(file.CrossReferences) == 0 {
		return
	}
	refRows := make([][]string, 0, len(file.CrossReferences))
	for _, ref := range file.CrossReferences {
		refRows = append(refRows, crossReferenceRow(ref))
	}
	fmt.Fprintln(out, renderTable(crossReferenceHeaders, refRows, crossReferenceAligns))
}

var crossReferenceHeaders = []string{"AniDB Episode", "AniDB Anime", "Shoko Episode", "Shoko Series", "Percent"}

var crossReferenceAligns = []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight}

func crossReferenceRow(ref fileevents.CrossReference) []string {
	percent := ""
	if ref.Percentage != nil {
		percent = strconv.Itoa(*ref.Percentage)
	}
	return []string{
		strconv.Itoa(ref.AniDBEpisodeID),
		strconv.Itoa(ref.AniDBAnimeID),
		optionalID(ref.ShokoEpisodeID),
		optionalID(ref.ShokoSeriesID),
		percent,
	}
}

func optionalID(id int) string {
	if id == 0 {
		return "-"
	}
	return strconv.Itoa(id)
}

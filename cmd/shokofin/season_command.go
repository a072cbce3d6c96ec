package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shokofin/internal/logging"
	"shokofin/internal/season"
	"shokofin/internal/shoko"
)

func newSeasonCommand(ctx *commandContext) *cobra.Command {
	var (
		name     string
		language string
		country  string
		jsonOut  bool
		anidbID  bool
	)

	cmd := &cobra.Command{
		Use:   "season <series-id> <season-number>",
		Short: "Resolve one season against Shoko Server and print the metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			seriesID := strings.TrimSpace(args[0])
			index, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("invalid season number %q", args[1])
			}

			client, err := shoko.New(cfg.Shoko.APIKey, cfg.Shoko.URL,
				shoko.WithTimeout(time.Duration(cfg.Shoko.TimeoutSeconds)*time.Second))
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Level:   "warn",
				Format:  "console",
				Outputs: []string{"stderr"},
			})
			if err != nil {
				return err
			}
			settings := season.Settings{AddAniDBID: cfg.Metadata.AddAniDBID || anidbID}
			resolver := season.NewResolver(client, season.WithLogger(logger), season.WithSettings(settings))

			if name == "" {
				name = fmt.Sprintf("Season %d", index)
			}
			req := season.Request{
				Name:                name,
				IndexNumber:         &index,
				SeriesProviderIDs:   map[string]string{season.ProviderShokoSeries: seriesID},
				MetadataLanguage:    firstNonEmpty(language, cfg.Metadata.Language),
				MetadataCountryCode: firstNonEmpty(country, cfg.Metadata.CountryCode),
			}
			result := resolver.Resolve(cmd.Context(), req)

			if jsonOut {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			if result.Empty() {
				fmt.Fprintf(out, "No metadata for series %s season %d\n", seriesID, index)
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, seasonRows(result.Item), nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Season name sent by the library (default \"Season N\")")
	cmd.Flags().StringVar(&language, "language", "", "Metadata language (default from config)")
	cmd.Flags().StringVar(&country, "country", "", "Metadata country code (default from config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&anidbID, "anidb-id", false, "Attach the AniDB id even when disabled in config")
	return cmd
}

func seasonRows(item *season.Season) [][]string {
	rows := [][]string{
		{"Name", item.Name},
		{"Original title", item.OriginalTitle},
		{"Index", strconv.Itoa(item.IndexNumber)},
		{"Sort name", item.SortName},
	}
	if item.PremiereDate != nil {
		rows = append(rows, []string{"Premiere", item.PremiereDate.Format("2006-01-02")})
	}
	if item.EndDate != nil {
		rows = append(rows, []string{"Ended", item.EndDate.Format("2006-01-02")})
	}
	if item.CommunityRating != nil {
		rows = append(rows, []string{"Rating", strconv.FormatFloat(*item.CommunityRating, 'f', 2, 64)})
	}
	if item.OfficialRating != "" {
		rows = append(rows, []string{"Content rating", item.OfficialRating})
	}
	appendList := func(label string, values []string) {
		if len(values) > 0 {
			rows = append(rows, []string{label, strings.Join(values, ", ")})
		}
	}
	appendList("Genres", item.Genres)
	appendList("Tags", item.Tags)
	appendList("Studios", item.Studios)
	appendList("Locations", item.ProductionLocations)
	for _, provider := range []string{season.ProviderShokoSeries, season.ProviderAniDB} {
		if id, ok := item.ProviderID(provider); ok {
			rows = append(rows, []string{provider, id})
		}
	}
	if item.Overview != "" {
		rows = append(rows, []string{"Overview", truncate(item.Overview, 120)})
	}
	return rows
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

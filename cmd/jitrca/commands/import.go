package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"jit-rca/internal/dataset"
	"jit-rca/internal/report"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	importName    string
	deleteDataset string
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv|file.jsonl>",
	Short: "Import order records into the dataset store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		recs, err := dataset.ImportFile(path)
		if err != nil {
			return err
		}

		name := importName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		info := store.Put(name, recs)
		if err := store.Save(info.ID); err != nil {
			return fmt.Errorf("save dataset: %w", err)
		}

		log.Info().Str("id", info.ID).Str("name", name).Int("records", info.Records).Msg("Dataset imported")
		fmt.Fprintln(cmd.OutOrStdout(), info.ID)
		return nil
	},
}

type datasetRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Records    int    `json:"records"`
	ImportedAt string `json:"imported_at"`
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the imported datasets, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if deleteDataset != "" {
			id, err := store.Resolve(deleteDataset)
			if err != nil {
				return err
			}
			if err := store.Delete(id); err != nil {
				return err
			}
			log.Info().Str("id", id).Msg("Dataset deleted")
		}

		infos := store.List()
		rows := make([]datasetRow, 0, len(infos))
		for _, i := range infos {
			rows = append(rows, datasetRow{i.ID, i.Name, i.Records, i.ImportedAt.Local().Format(time.DateTime)})
		}
		return emit(cmd.OutOrStdout(), infos, report.TableOf("datasets", rows))
	},
}

func init() {
	importCmd.Flags().StringVarP(&importName, "name", "n", "", "dataset name (default: file name)")
	datasetsCmd.Flags().StringVar(&deleteDataset, "delete", "", "delete this dataset id or name first")
}

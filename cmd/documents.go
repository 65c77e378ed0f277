package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/config"
	"github.com/habedi/rentdesk/pkg/clierr"
	"github.com/habedi/rentdesk/pkg/hasher"
	"github.com/habedi/rentdesk/pkg/operations"
	"github.com/habedi/rentdesk/pkg/pool"
	"github.com/habedi/rentdesk/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func documentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Upload, list and download documents",
	}

	cmd.AddCommand(
		listDocumentsCmd(),
		uploadDocumentCmd(),
		downloadDocumentsCmd(),
		verifyDocumentsCmd(),
	)

	return cmd
}

func listDocumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Run: func(cmd *cobra.Command, args []string) {
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			docs, err := s.api.ListDocuments(cmd.Context())
			if err != nil {
				fail(cmd, err)
				return
			}
			if len(docs) == 0 {
				cmd.Println("No documents found.")
				return
			}

			table := newTable(cmd.OutOrStdout(), "ID", "Title", "Type", "Tenant", "Apartment", "Uploaded")
			for _, d := range docs {
				table.Append([]string{
					strconv.Itoa(d.ID),
					d.Title,
					d.DocumentType,
					derefOrDash(d.TenantName),
					derefOrDash(d.ApartmentTitle),
					orDash(d.UploadedAt),
				})
			}
			table.Render()
		},
	}
}

func uploadDocumentCmd() *cobra.Command {
	var in client.UploadDocument

	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a document for a tenant or an apartment",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			in.Path = args[0]
			if in.Title == "" {
				in.Title = strings.TrimSuffix(filepath.Base(in.Path), filepath.Ext(in.Path))
			}
			if err := validateUpload(in); err != nil {
				fail(cmd, invalid(err))
				return
			}

			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			doc, err := s.api.UploadDocument(cmd.Context(), in)
			if err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Uploaded document %d (%s).\n", doc.ID, doc.Title)
		},
	}

	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "Title; defaults to the file name")
	cmd.Flags().StringVar(&in.DocumentType, "type", "other", fmt.Sprintf("Document type %v", validation.DocumentTypes))
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "Description")
	cmd.Flags().IntVar(&in.Tenant, "tenant", 0, "Tenant ID the document belongs to")
	cmd.Flags().IntVar(&in.Apartment, "apartment", 0, "Apartment ID the document belongs to")

	return cmd
}

func validateUpload(in client.UploadDocument) error {
	info, err := os.Stat(in.Path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", in.Path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", in.Path)
	}
	if err := validation.ValidateDocumentType(in.DocumentType); err != nil {
		return err
	}
	if in.Tenant <= 0 && in.Apartment <= 0 {
		return errors.New("one of --tenant or --apartment is required")
	}
	return nil
}

// downloadDocumentsCmd fetches documents in parallel and prints a checksum for each file.
func downloadDocumentsCmd() *cobra.Command {
	var all, quiet, sidecar bool
	var dir, algo string
	var workers int

	cmd := &cobra.Command{
		Use:   "download [documentID...]",
		Short: "Download documents and verify their checksums",
		Run: func(cmd *cobra.Command, args []string) {
			if all == (len(args) > 0) {
				fail(cmd, invalid(errors.New("pass document IDs or --all, but not both")))
				return
			}
			if !hasher.IsValidHashAlgo(algo) {
				fail(cmd, invalid(fmt.Errorf("unsupported hash algorithm %q: use one of %v", algo, hasher.HashAlgorithms)))
				return
			}
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := parseID("document", arg)
				if err != nil {
					fail(cmd, err)
					return
				}
				ids = append(ids, id)
			}

			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			if !cmd.Flags().Changed("workers") {
				workers = s.cfg.Workers
			}
			if err := validation.ValidateWorkerCount(workers); err != nil {
				fail(cmd, invalid(err))
				return
			}

			docs, err := resolveDocuments(cmd.Context(), s.api, ids, all)
			if err != nil {
				fail(cmd, err)
				return
			}
			if len(docs) == 0 {
				cmd.Println("No documents to download.")
				return
			}

			var progress io.Writer
			if !quiet && (len(docs) == 1 || workers == 1) {
				progress = cmd.ErrOrStderr()
			}

			results, errs := downloadAll(cmd.Context(), s.api, docs, dir, algo, workers, progress)
			if sidecar {
				for _, r := range results {
					if err := operations.WriteSidecar(r.Path, r.Algo, r.Checksum); err != nil {
						errs = append(errs, err)
					}
				}
			}
			if len(results) > 0 {
				table := newTable(cmd.OutOrStdout(), "ID", "File", "Size", strings.ToUpper(algo))
				for _, r := range results {
					table.Append([]string{strconv.Itoa(r.id), r.Path, formatBytes(r.Size), r.Checksum})
				}
				table.Render()
			}
			for _, err := range errs {
				fail(cmd, err)
			}
			cmd.Printf("Downloaded %d of %d documents to %s.\n", len(results), len(docs), dir)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Download every document")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to save the files in")
	cmd.Flags().StringVar(&algo, "hash", hasher.DefaultAlgo, fmt.Sprintf("Checksum algorithm %v", hasher.HashAlgorithms))
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, fmt.Sprintf("Parallel downloads, %d-%d (default from config)", validation.MinWorkers, validation.MaxWorkers))
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not draw a progress bar")
	cmd.Flags().BoolVar(&sidecar, "checksum-file", false, "Save each checksum next to its file, e.g. lease.pdf.sha256")

	return cmd
}

// verifyDocumentsCmd re-hashes downloaded files and compares them with their checksum files.
func verifyDocumentsCmd() *cobra.Command {
	var algo string
	var workers int
	var recursive, clean bool

	cmd := &cobra.Command{
		Use:   "verify [dir]",
		Short: "Check downloaded documents against their checksum files",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir := args[0]
			if clean {
				removed, err := operations.CleanSidecars(dir, recursive)
				if err != nil {
					fail(cmd, err)
					return
				}
				cmd.Printf("Removed %d checksum files.\n", len(removed))
				return
			}

			if !hasher.IsValidHashAlgo(algo) {
				fail(cmd, invalid(fmt.Errorf("unsupported hash algorithm %q: use one of %v", algo, hasher.HashAlgorithms)))
				return
			}
			if err := validation.ValidateWorkerCount(workers); err != nil {
				fail(cmd, invalid(err))
				return
			}
			files, err := operations.FindFiles(dir, recursive, operations.DefaultExclusions)
			if err != nil {
				fail(cmd, err)
				return
			}
			if len(files) == 0 {
				cmd.Println("No documents found in", dir)
				return
			}

			mismatches := 0
			table := newTable(cmd.OutOrStdout(), "File", strings.ToUpper(algo), "Status")
			for _, r := range operations.VerifyFiles(cmd.Context(), files, algo, workers) {
				status := r.Status
				if r.Err != nil {
					status += ": " + r.Err.Error()
				}
				if r.Status == operations.StatusMismatch || r.Status == operations.StatusError {
					mismatches++
				}
				table.Append([]string{r.File, orDash(r.Hash), status})
			}
			table.Render()

			if mismatches > 0 {
				fail(cmd, clierr.New(clierr.Validation, fmt.Sprintf("%d of %d files failed verification", mismatches, len(files)), nil))
			}
		},
	}

	cmd.Flags().StringVar(&algo, "hash", hasher.DefaultAlgo, fmt.Sprintf("Checksum algorithm %v", hasher.HashAlgorithms))
	cmd.Flags().IntVarP(&workers, "workers", "w", config.DefaultWorkers, "Files hashed in parallel")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove checksum files instead of verifying")

	return cmd
}

func resolveDocuments(ctx context.Context, api *client.Client, ids []int, all bool) ([]client.Document, error) {
	if all {
		return api.ListDocuments(ctx)
	}
	docs := make([]client.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := api.GetDocument(ctx, id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

type downloaded struct {
	id int
	*client.DownloadResult
}

// downloadAll returns the finished downloads ordered by document ID, plus one error per failed document.
// Documents whose file names clash are saved as <id>-<name> so they cannot overwrite each other.
func downloadAll(ctx context.Context, api *client.Client, docs []client.Document, dir, algo string, workers int, progress io.Writer) ([]downloaded, []error) {
	names := make(map[string]int, len(docs))
	for i := range docs {
		names[api.FileName(&docs[i])]++
	}

	var mu sync.Mutex
	var results []downloaded

	errs := pool.Run(ctx, docs, workers, func(ctx context.Context, doc client.Document) error {
		name := api.FileName(&doc)
		if names[name] > 1 {
			name = fmt.Sprintf("%d-%s", doc.ID, name)
		}
		res, err := api.DownloadDocument(ctx, &doc, client.DownloadOptions{Dir: dir, Name: name, Algo: algo, Progress: progress})
		if err != nil {
			log.Error().Err(err).Int("document", doc.ID).Msg("Download failed")
			return fmt.Errorf("document %d: %w", doc.ID, err)
		}
		mu.Lock()
		results = append(results, downloaded{id: doc.ID, DownloadResult: res})
		mu.Unlock()
		return nil
	})

	sort.Slice(results, func(i, j int) bool { return results[i].id < results[j].id })
	return results, errs
}

// formatBytes renders n in binary units, e.g. 1.5MiB.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	epub "github.com/simp-lee/bene"
	"github.com/simp-lee/bene/cfi"
)

// openBook opens the publication named by the first argument.
func openBook(cmd *cobra.Command, path string) (*epub.Book, error) {
	logger.Debug("opening publication", zap.String("path", path))
	return epub.OpenFile(cmd.Context(), path, bookOptions()...)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode output")
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// withBook opens args[0] and runs fn on rendition --rendition of it.
func withBook(cmd *cobra.Command, args []string, fn func(*epub.Book, int) error) error {
	book, err := openBook(cmd, args[0])
	if err != nil {
		return err
	}
	defer book.Close()

	idx, err := cmd.Flags().GetInt("rendition")
	if err != nil {
		return err
	}
	return fn(book, idx)
}

func addRenditionFlag(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().IntP("rendition", "r", 0, "rendition index")
	return cmd
}

func renditionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "renditions FILE",
		Short: "List the renditions of a publication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := openBook(cmd, args[0])
			if err != nil {
				return err
			}
			defer book.Close()
			return writeJSON(cmd.OutOrStdout(), book.Renditions())
		},
	}
}

func assetCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "asset FILE PATH",
		Short: "Write a rendition file, with the reader stylesheet linked into XHTML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBook(cmd, args, func(book *epub.Book, idx int) error {
				data, contentType, err := book.ResolveAsset(idx, args[1])
				if err != nil {
					return err
				}
				logger.Info("asset resolved",
					zap.String("path", args[1]),
					zap.String("content_type", contentType),
					zap.Int("bytes", len(data)))
				if out == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				return os.WriteFile(out, data, 0o644)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to this file instead of stdout")
	return addRenditionFlag(cmd)
}

func tocCmd() *cobra.Command {
	return addRenditionFlag(&cobra.Command{
		Use:   "toc FILE",
		Short: "Print the navigation document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBook(cmd, args, func(book *epub.Book, idx int) error {
				nav, err := book.Navigation(idx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), nav)
			})
		},
	})
}

func chaptersCmd() *cobra.Command {
	return addRenditionFlag(&cobra.Command{
		Use:   "chapters FILE",
		Short: "List the spine with titles from the navigation document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBook(cmd, args, func(book *epub.Book, idx int) error {
				r, err := book.Rendition(idx)
				if err != nil {
					return err
				}
				nav, err := r.Navigation(book.Archive())
				if err != nil && !errors.Is(err, epub.ErrNotFound) {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), r.Chapters(nav))
			})
		},
	})
}

func textCmd() *cobra.Command {
	return addRenditionFlag(&cobra.Command{
		Use:   "text FILE [SPINE-INDEX]",
		Short: "Print the plain text of one chapter, or of all linear chapters",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			only := -1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return errors.Wrapf(err, "spine index %q", args[1])
				}
				only = n
			}
			return withBook(cmd, args, func(book *epub.Book, idx int) error {
				r, err := book.Rendition(idx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				found := false
				for _, ch := range r.Chapters(nil) {
					if (only >= 0 && ch.Index != only) || (only < 0 && !ch.Linear) {
						continue
					}
					found = true
					text, err := epub.ChapterText(book.Archive(), ch)
					if err != nil {
						return err
					}
					if _, err := fmt.Fprintf(w, "%s\n\n", text); err != nil {
						return err
					}
				}
				if only >= 0 && !found {
					return errors.Wrapf(epub.ErrNotFound, "spine index %d", only)
				}
				return nil
			})
		},
	})
}

func coverCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "cover FILE",
		Short: "Extract the cover image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBook(cmd, args, func(book *epub.Book, idx int) error {
				r, err := book.Rendition(idx)
				if err != nil {
					return err
				}
				cover, err := r.Cover(book.Archive())
				if err != nil {
					return err
				}
				if out == "" {
					return writeJSON(cmd.OutOrStdout(), map[string]any{
						"path":      cover.Path,
						"mediaType": cover.MediaType,
						"size":      len(cover.Data),
					})
				}
				return os.WriteFile(out, cover.Data, 0o644)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the image to this file")
	return addRenditionFlag(cmd)
}

func annotationsCmd() *cobra.Command {
	return addRenditionFlag(&cobra.Command{
		Use:   "annotations FILE",
		Short: "Print the normalized annotations of a rendition as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBook(cmd, args, func(book *epub.Book, idx int) error {
				annots, err := book.LoadAnnotations(idx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), annots)
			})
		},
	})
}

func cfiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cfi EXPRESSION",
		Short: "Parse an epubcfi(...) expression and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := cfi.Parse(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), f)
		},
	}
}

// Package epub reads ePub 3 publications from ZIP archives.
//
// The archive may live in memory or on disk (see [MemoryBacking] and
// [FileBacking]). Loading reads META-INF/container.xml, rejects DRM-protected
// files with [ErrDRMProtected], and decodes one package document per
// rootfile into a [Rendition]. Every rendition must declare version 3.0.
//
// # Opening a publication
//
//	book, err := epub.OpenFile(ctx, "book.epub", epub.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer book.Close()
//
//	for _, r := range book.Renditions() {
//	    fmt.Println(r.Index, r.Title, r.PackagePath)
//	}
//
// # Assets
//
// [Book.ResolveAsset] returns a file of a rendition by its path relative to
// the package directory, with a content-type hint. XHTML documents are
// rewritten to link the host stylesheet (content.css by default, see
// [WithStylesheet]) at the end of their head; other files are returned
// unchanged.
//
// # Navigation, chapters, and covers
//
// [Rendition.Navigation] parses the nav document, [Rendition.Chapters] lists
// the spine, [ChapterText] extracts plain text, and [Rendition.Cover] locates
// the cover image.
//
// # Annotations
//
// Manifest items with the "annotations" property hold W3C Web Annotations.
// [Book.LoadAnnotations] decodes and normalizes them with the annotation
// package; CFI selectors are parsed by the cfi package.
//
// # Errors
//
// Failures are classified by the sentinels [ErrIO], [ErrFormat],
// [ErrNotFound], [ErrEncoding], [ErrSchema], and [ErrParse]; test with
// errors.Is. Errors about a specific archive entry are *[PathError] values.
//
// A Book and its Archive are not safe for concurrent use. Independent
// cursors are obtained with [Archive.TryClone] or an [ArchivePool].
package epub

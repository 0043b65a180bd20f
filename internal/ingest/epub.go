package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/smartreader/reader/internal/book"
)

// epubContainer is META-INF/container.xml, which points at the OPF file.
type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// epubPackage is the OPF package document: metadata, the manifest of files,
// and the spine giving reading order.
type epubPackage struct {
	Metadata struct {
		Title    string `xml:"title"`
		Language string `xml:"language"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Itemrefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// ncxDoc is the legacy NCX table of contents, used for chapter titles when
// present. Books without one fall back to numbered chapters.
type ncxDoc struct {
	NavPoints []ncxNavPoint `xml:"navMap>navPoint"`
}

type ncxNavPoint struct {
	Label   string `xml:"navLabel>text"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

type epubBook struct {
	title    string
	lang     string
	files    map[string]*zip.File
	chapters []epubChapter
}

type epubChapter struct {
	path  string
	title string
}

// OpenEPUB parses the container, package, and spine of an EPUB archive.
// Chapter documents are extracted lazily in ChapterParagraphs.
func OpenEPUB(filename string, data []byte) (Book, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", ErrParse, err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[path.Clean(f.Name)] = f
	}

	containerData, err := readZipEntry(files, "META-INF/container.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: missing container.xml", ErrParse)
	}
	var container epubContainer
	if err := xml.Unmarshal(containerData, &container); err != nil {
		return nil, fmt.Errorf("%w: container.xml: %v", ErrParse, err)
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		return nil, fmt.Errorf("%w: container.xml names no rootfile", ErrParse)
	}

	opfPath := path.Clean(container.Rootfiles[0].FullPath)
	opfData, err := readZipEntry(files, opfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: missing package document %s", ErrParse, opfPath)
	}
	var pkg epubPackage
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return nil, fmt.Errorf("%w: package document: %v", ErrParse, err)
	}

	opfDir := path.Dir(opfPath)
	hrefByID := make(map[string]string, len(pkg.Manifest.Items))
	ncxPath := ""
	for _, item := range pkg.Manifest.Items {
		hrefByID[item.ID] = resolveZipPath(opfDir, item.Href)
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = resolveZipPath(opfDir, item.Href)
		}
	}
	titles := ncxTitles(files, ncxPath)

	b := &epubBook{
		title: strings.TrimSpace(pkg.Metadata.Title),
		lang:  strings.TrimSpace(pkg.Metadata.Language),
		files: files,
	}
	if b.title == "" {
		b.title = strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	}
	for _, ref := range pkg.Spine.Itemrefs {
		href, ok := hrefByID[ref.IDRef]
		if !ok {
			continue
		}
		title := titles[href]
		if title == "" {
			title = fmt.Sprintf("Chapter %d", len(b.chapters)+1)
		}
		b.chapters = append(b.chapters, epubChapter{path: href, title: title})
	}
	if len(b.chapters) == 0 {
		return nil, fmt.Errorf("%w: empty spine", ErrParse)
	}
	return b, nil
}

func (b *epubBook) Title() string    { return b.title }
func (b *epubBook) Language() string { return b.lang }

func (b *epubBook) Chapters() []ChapterInfo {
	infos := make([]ChapterInfo, len(b.chapters))
	for i, ch := range b.chapters {
		infos[i] = ChapterInfo{Index: i, Title: ch.title}
	}
	return infos
}

func (b *epubBook) ChapterParagraphs(index int) ([]book.Seed, error) {
	if index < 0 || index >= len(b.chapters) {
		return nil, fmt.Errorf("%w: chapter %d out of range", ErrParse, index)
	}
	ch := b.chapters[index]
	data, err := readZipEntry(b.files, ch.path)
	if err != nil {
		return nil, fmt.Errorf("%w: chapter file %s", ErrParse, ch.path)
	}
	dir := path.Dir(ch.path)
	return extractMarkupSeeds(data, func(href string) string {
		return b.resolveImage(dir, href)
	})
}

// resolveImage inlines archive-local images as data URLs so the caller
// needs no access to the archive; external references pass through.
func (b *epubBook) resolveImage(dir, href string) string {
	if strings.Contains(href, "://") || strings.HasPrefix(href, "data:") {
		return href
	}
	p := resolveZipPath(dir, href)
	data, err := readZipEntry(b.files, p)
	if err != nil {
		return ""
	}
	return "data:" + imageMediaType(p) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func imageMediaType(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// ncxTitles maps chapter file paths to their navigation labels.
func ncxTitles(files map[string]*zip.File, ncxPath string) map[string]string {
	titles := make(map[string]string)
	if ncxPath == "" {
		return titles
	}
	data, err := readZipEntry(files, ncxPath)
	if err != nil {
		return titles
	}
	var doc ncxDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return titles
	}
	dir := path.Dir(ncxPath)
	var walk func(points []ncxNavPoint)
	walk = func(points []ncxNavPoint) {
		for _, pt := range points {
			src, _, _ := strings.Cut(pt.Content.Src, "#")
			p := resolveZipPath(dir, src)
			if label := strings.TrimSpace(pt.Label); label != "" {
				if _, seen := titles[p]; !seen {
					titles[p] = label
				}
			}
			walk(pt.NavPoints)
		}
	}
	walk(doc.NavPoints)
	return titles
}

func resolveZipPath(dir, href string) string {
	href = strings.TrimSpace(href)
	if dir == "." || strings.HasPrefix(href, "/") {
		return path.Clean(strings.TrimPrefix(href, "/"))
	}
	return path.Clean(path.Join(dir, href))
}

func readZipEntry(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[path.Clean(name)]
	if !ok {
		return nil, fmt.Errorf("entry %s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// vpktool is a CLI utility for VPK archives and compiled resources.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/vmdlview/internal/assets"
	"github.com/Faultbox/vmdlview/internal/engine/mesh"
	"github.com/Faultbox/vmdlview/pkg/vpk"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "list", "ls":
		cmdList(args)
	case "extract", "x":
		cmdExtract(args)
	case "search", "find":
		cmdSearch(args)
	case "inspect", "drawcalls":
		cmdInspect(args)
	case "pack":
		cmdPack(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`vpktool - VPK archive and compiled resource utility

Usage:
  vpktool <command> [options]

Commands:
  info <file_dir.vpk>                    Show archive information
  list <file_dir.vpk> [pattern]          List files (optional glob pattern)
  extract <file_dir.vpk> <path> [output] Extract file(s) to directory
  search <file_dir.vpk> <pattern>        Search files by name pattern
  inspect <resource>                     Show blocks, buffers and draw calls
  pack <out_dir.vpk> <directory>         Pack a directory into a single-file archive

A resource is a loose file or "<file_dir.vpk>:<path>".

Examples:
  vpktool info pak01_dir.vpk
  vpktool list pak01_dir.vpk "*.vmdl_c"
  vpktool extract pak01_dir.vpk "models/props/*.vmdl_c" ./output
  vpktool inspect pak01_dir.vpk:models/props/crate.vmdl_c`)
}

func openArchive(path string) *vpk.Archive {
	archive, err := vpk.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return archive
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: vpktool info <file_dir.vpk>")
		os.Exit(1)
	}

	archive := openArchive(args[0])
	defer archive.Close()

	files := archive.List()

	// Count by extension
	extCount := make(map[string]int)
	var totalSize int64
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f))
		if ext == "" {
			ext = "(no ext)"
		}
		extCount[ext]++
		if e, ok := archive.Stat(f); ok {
			totalSize += int64(e.Size())
		}
	}

	h := archive.Header()
	fmt.Printf("Archive: %s\n", args[0])
	fmt.Printf("Version: %d\n", h.Version)
	fmt.Printf("Files:   %d\n", len(files))
	fmt.Printf("Size:    %.2f MB\n", float64(totalSize)/(1024*1024))
	fmt.Println()
	fmt.Println("Files by type:")

	// Sort by count
	type extStat struct {
		ext   string
		count int
	}
	var stats []extStat
	for ext, count := range extCount {
		stats = append(stats, extStat{ext, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].ext < stats[j].ext
	})

	for _, s := range stats {
		fmt.Printf("  %-12s %d\n", s.ext, s.count)
	}
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: vpktool list <file_dir.vpk> [pattern]")
		os.Exit(1)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	files := archive.List()

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, f := range files {
		if pattern != "" {
			matched, _ := filepath.Match(pattern, strings.ToLower(filepath.Base(f)))
			if !matched && !strings.Contains(strings.ToLower(f), pattern) {
				continue
			}
		}
		fmt.Println(f)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d files matched)\n", count)
	}
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: vpktool extract <file_dir.vpk> <path> [output_dir]")
		os.Exit(1)
	}

	filePath := fs.Arg(1)
	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	if strings.Contains(filePath, "*") {
		extractPattern(archive, filePath, outputDir)
		return
	}

	if !archive.Contains(filePath) {
		fmt.Fprintf(os.Stderr, "File not found: %s\n", filePath)
		os.Exit(1)
	}

	data, err := archive.Read(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	outputPath := filepath.Join(outputDir, filepath.Base(filePath))
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
}

func extractPattern(archive *vpk.Archive, pattern, outputDir string) {
	pattern = strings.ToLower(pattern)

	extracted := 0
	for _, f := range archive.List() {
		// Patterns with a directory match the full path, others the base name.
		name := filepath.Base(f)
		if strings.Contains(pattern, "/") {
			name = f
		}
		matched, _ := filepath.Match(pattern, strings.ToLower(name))
		if !matched {
			continue
		}

		data, err := archive.Read(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", f, err)
			continue
		}

		// Preserve directory structure
		outputPath := filepath.Join(outputDir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
			continue
		}

		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
			continue
		}

		fmt.Printf("Extracted: %s\n", outputPath)
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", extracted)
}

func cmdSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("n", 50, "Limit results (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: vpktool search <file_dir.vpk> <pattern>")
		os.Exit(1)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	pattern := strings.ToLower(fs.Arg(1))

	count := 0
	for _, f := range archive.List() {
		if strings.Contains(strings.ToLower(f), pattern) {
			fmt.Println(f)
			count++
			if *limit > 0 && count >= *limit {
				fmt.Fprintf(os.Stderr, "\n(showing first %d matches, use -n 0 for all)\n", *limit)
				break
			}
		}
	}

	if count == 0 {
		fmt.Fprintln(os.Stderr, "No files found")
	} else if *limit == 0 || count < *limit {
		fmt.Fprintf(os.Stderr, "\n(%d files found)\n", count)
	}
}

func cmdInspect(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: vpktool inspect <resource>")
		os.Exit(1)
	}

	mgr := assets.NewManager()
	defer mgr.Close()

	res, err := mgr.OpenResource(assets.ParseTarget(args[0]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Resource: %s\n", args[0])
	fmt.Printf("Size:     %d bytes, version %d\n", res.FileSize, res.Version)
	fmt.Println("Blocks:")
	for _, b := range res.Blocks {
		fmt.Printf("  %-4s offset %-8d size %d\n", b.Type, b.Offset, b.Size)
	}

	vbib, err := res.VBIB()
	if err == nil {
		fmt.Println("Vertex buffers:")
		for i, buf := range vbib.VertexBuffers {
			fmt.Printf("  [%d] %d x %d bytes\n", i, buf.ElementCount, buf.ElementSize)
			for _, a := range buf.Attributes {
				fmt.Printf("      %s%d %s @%d\n", a.SemanticName, a.SemanticIndex, a.Format, a.Offset)
			}
		}
		fmt.Println("Index buffers:")
		for i, buf := range vbib.IndexBuffers {
			fmt.Printf("  [%d] %d x %d bytes\n", i, buf.ElementCount, buf.ElementSize)
		}
	}

	data, err := res.Data()
	if err != nil {
		fmt.Fprintf(os.Stderr, "No model data: %v\n", err)
		return
	}
	scene, err := mesh.ReadScene(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading draw calls: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bounds:   %v .. %v\n", scene.Bounds.Min, scene.Bounds.Max)
	fmt.Printf("Draw calls: %d\n", len(scene.DrawCalls))
	for i, dc := range scene.DrawCalls {
		fmt.Printf("  [%d] %s indices %d+%d base %d vb %d ib %d\n",
			i, dc.Material, dc.StartIndex, dc.IndexCount, dc.BaseVertex,
			len(dc.VertexBuffers), dc.IndexBuffer.Index)
	}
}

func cmdPack(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: vpktool pack <out_dir.vpk> <directory>")
		os.Exit(1)
	}

	dest, root := args[0], args[1]
	files := make(map[string][]byte)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", root, err)
		os.Exit(1)
	}

	if err := vpk.Create(dest, files); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing archive: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Packed %d files into %s\n", len(files), dest)
}

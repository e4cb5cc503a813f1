// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/koru/utility/kar"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil && u.Name != "" {
		currentUserName = u.Name
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing (default current user)")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the file given, or everything with '*'")
	compress        = flag.String("c", "", "Compress the given file/folder")
	list            = flag.Bool("l", false, "List the archive contents")
	dstFile         = flag.String("f", "out.kar", "Archive file")
	outDir          = flag.String("o", ".", "Directory to extract into")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	var ops int
	for _, set := range []bool{*extract != "", *compress != "", *list} {
		if set {
			ops++
		}
	}

	var err error
	switch {
	case ops > 1:
		err = errors.New("only one operation at a time")
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *extract != "":
		err = extractFiles(*dstFile, *extract, *outDir)
	case *list:
		err = listFiles(*dstFile, os.Stdout)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func compressFiles(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	})
	if err != nil {
		return err
	}

	name := *author
	if name == "" {
		name = currentUserName
	}
	karBuilder, err := kar.NewBuilder(kar.Header{
		Author:  name,
		Version: *version,
	})
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	for _, ftc := range filesToCompress {
		if err := addFile(karBuilder, src, ftc); err != nil {
			return err
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	written, err := karBuilder.WriteTo(out)
	if err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"files": len(filesToCompress),
		"bytes": written,
	}).Infof("created %s", dst)
	return nil
}

// addFile stores path under its slash separated name relative to root
func addFile(b *kar.Builder, root, path string) error {
	name, err := filepath.Rel(root, path)
	if err != nil || name == "." {
		name = filepath.Base(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	log.WithField("file", name).Debug("compressing")
	return b.Add(filepath.ToSlash(name), f)
}

func extractFiles(archive, name, dir string) error {
	ar, err := kar.OpenFile(archive)
	if err != nil {
		return err
	}
	defer ar.Close()

	names := []string{name}
	if name == "*" {
		names = ar.Names()
	}
	for _, n := range names {
		if err := extractFile(ar, n, dir); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(ar *kar.Archive, name, dir string) error {
	target := filepath.Join(dir, filepath.FromSlash(name))
	if rel, err := filepath.Rel(dir, target); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to extract %s outside of %s", name, dir)
	}

	r, err := ar.Open(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	log.WithField("file", target).Info("extracted")
	return out.Close()
}

func listFiles(archive string, w io.Writer) error {
	ar, err := kar.OpenFile(archive)
	if err != nil {
		return err
	}
	defer ar.Close()

	header := ar.Header()
	fmt.Fprintf(w, "author: %s, version: %d\n", header.Author, header.Version)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tCOMPRESSED")
	for _, e := range header.Index {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", e.Name, e.Size, e.CompressedSize)
	}
	return tw.Flush()
}

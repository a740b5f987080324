package util

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// CreateCBZ packs files into output in lexical order.
func CreateCBZ(files []string, output string) (err error) {
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("cbz: closing %s: %w", output, cerr)
		}
	}()

	z := zip.NewWriter(out)
	defer func() {
		if cerr := z.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("cbz: finishing %s: %w", output, cerr)
		}
	}()

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	for _, file := range sorted {
		if err := addFileToZip(z, file); err != nil {
			return fmt.Errorf("cbz: %w", err)
		}
	}

	return nil
}

func addFileToZip(z *zip.Writer, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Printf("error closing input file %s: %v", file, cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.Base(file)
	header.Method = zip.Deflate

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}

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
	"time"

	"github.com/devblok/alchemy/pack"
)

func init() {
	u, err := user.Current()
	if err != nil {
		currentUserName = "unknown"
		return
	}
	currentUserName = u.Name
}

var (
	currentUserName string
	author          = flag.String("author", currentUserName, "Set the author of the archive when compressing")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the given archive into the destination directory")
	compress        = flag.String("c", "", "Compress the given file/folder")
	dstFile         = flag.String("f", "out.alpk", "Destination file")
	dstDir          = flag.String("d", ".", "Destination directory for extraction")
	list            = flag.String("l", "", "List the contents of the given archive")
)

func main() {
	var opMade bool
	flag.Parse()

	if *extract != "" && *compress != "" {
		panic(errors.New("only one operation at a time"))
	}

	if *extract != "" {
		opMade = true
		if err := extractFiles(); err != nil {
			panic(err)
		}
	}

	if *compress != "" {
		opMade = true
		if err := compressFiles(); err != nil {
			panic(err)
		}
	}

	if *list != "" {
		opMade = true
		if err := listFiles(); err != nil {
			panic(err)
		}
	}

	if !opMade {
		flag.PrintDefaults()
	}
}

func compressFiles() error {
	if _, err := os.Stat(*dstFile); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	dst, err := os.Create(*dstFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	builder := pack.NewBuilder(pack.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})

	err = filepath.Walk(*compress, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		name, err := filepath.Rel(*compress, path)
		if err != nil {
			name = info.Name()
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return builder.Add(name, data)
	})
	if err != nil {
		return err
	}

	_, err = builder.WriteTo(dst)
	return err
}

func extractFiles() error {
	src, err := os.Open(*extract)
	if err != nil {
		return err
	}
	defer src.Close()

	archive, err := pack.Open(src)
	if err != nil {
		return err
	}

	for _, name := range archive.Names() {
		entry, err := archive.Open(name)
		if err != nil {
			return err
		}

		path := filepath.Join(*dstDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		dst, err := os.Create(path)
		if err != nil {
			return err
		}
		if _, err := io.Copy(dst, entry); err != nil {
			dst.Close()
			return err
		}
		if err := dst.Close(); err != nil {
			return err
		}
	}
	return nil
}

func listFiles() error {
	src, err := os.Open(*list)
	if err != nil {
		return err
	}
	defer src.Close()

	archive, err := pack.Open(src)
	if err != nil {
		return err
	}

	header := archive.Header()
	fmt.Printf("%s, version %d, created %s\n",
		*list, header.Version, time.Unix(header.DateCreated, 0).Format(time.RFC1123))
	for _, entry := range header.Index {
		fmt.Printf("%12d  %s\n", entry.Size, entry.Name)
	}
	return nil
}

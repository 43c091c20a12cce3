package main

import (
	"fmt"
	"path/filepath"

	"github.com/disiqueira/gotree/v3"

	"dropzone/internal/inspect"
)

// historyTree groups history entries under their parent directories.
type historyTree struct {
	tree gotree.Tree
	dirs map[string]gotree.Tree
}

func newHistoryTree(rootLabel string) historyTree {
	return historyTree{tree: gotree.New(rootLabel), dirs: make(map[string]gotree.Tree)}
}

func (t historyTree) getDir(dirPath string) gotree.Tree {
	if dirPath == "." {
		return t.tree
	}
	dir := t.dirs[dirPath]
	if dir == nil {
		parent := filepath.Dir(dirPath)
		if parent == dirPath {
			dir = t.tree.Add(dirPath)
		} else {
			dir = t.getDir(parent).Add(filepath.Base(dirPath))
		}
		t.dirs[dirPath] = dir
	}
	return dir
}

func (t historyTree) insert(d inspect.FileDescriptor) {
	label := fmt.Sprintf("%s [%s, %s]", d.Name, d.FileType, d.FormattedSize)
	t.getDir(filepath.Dir(filepath.Clean(d.Path))).Add(label)
}

func (t historyTree) render() string {
	return t.tree.Print()
}

func renderHistoryTree(list []inspect.FileDescriptor) string {
	t := newHistoryTree(fmt.Sprintf("History (%d)", len(list)))
	for _, d := range list {
		t.insert(d)
	}
	return t.render()
}

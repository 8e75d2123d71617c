// Package file stores thread checkpoints as JSON files, one per thread.
package file

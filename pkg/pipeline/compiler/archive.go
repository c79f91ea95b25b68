package compiler

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/askiada/go-kfp/pkg/pipeline"
)

// ArchiveEntry is the name of the manifest inside the archive.
const ArchiveEntry = "pipeline.yaml"

var ErrManifestNotFound = errors.New(ArchiveEntry + " not found in archive")

// Marshal returns the YAML form of the manifest.
func Marshal(wf *Workflow) ([]byte, error) {
	data, err := yaml.Marshal(wf)
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal workflow")
	}

	return data, nil
}

// WriteArchive writes wf as a gzip compressed tarball holding ArchiveEntry.
// The entry has a fixed modification time so identical pipelines give
// identical archives.
func WriteArchive(wrt io.Writer, wf *Workflow) error {
	data, err := Marshal(wf)
	if err != nil {
		return err
	}

	gzw := gzip.NewWriter(wrt)
	tw := tar.NewWriter(gzw)

	err = tw.WriteHeader(&tar.Header{
		Name:     ArchiveEntry,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
		Format:   tar.FormatPAX,
	})
	if err != nil {
		return errors.Wrap(err, "unable to write archive header")
	}

	_, err = tw.Write(data)
	if err != nil {
		return errors.Wrap(err, "unable to write manifest")
	}

	err = tw.Close()
	if err != nil {
		return errors.Wrap(err, "unable to close tar stream")
	}

	err = gzw.Close()
	if err != nil {
		return errors.Wrap(err, "unable to close gzip stream")
	}

	return nil
}

// ReadArchive reads the manifest back from an archive made by WriteArchive.
func ReadArchive(rdr io.Reader) (*Workflow, error) {
	gzr, err := gzip.NewReader(rdr)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open gzip stream")
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, ErrManifestNotFound
		}

		if err != nil {
			return nil, errors.Wrap(err, "unable to read archive")
		}

		if header.Name != ArchiveEntry {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read manifest")
		}

		wf := &Workflow{}

		err = yaml.Unmarshal(data, wf)
		if err != nil {
			return nil, errors.Wrap(err, "unable to unmarshal workflow")
		}

		return wf, nil
	}
}

// CompileArchive compiles p and returns the archive bytes.
func CompileArchive(p *pipeline.Pipeline) ([]byte, error) {
	wf, err := Compile(p)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	err = WriteArchive(&buf, wf)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// CompileFile compiles p into the archive fileName.
func CompileFile(p *pipeline.Pipeline, fileName string) error {
	data, err := CompileArchive(p)
	if err != nil {
		return err
	}

	err = os.WriteFile(fileName, data, 0o644) //nolint:gosec
	if err != nil {
		return errors.Wrapf(err, "unable to write archive %s", fileName)
	}

	return nil
}

package main

import (
	"bufio"
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"cropedit/internal/crop"
)

type Operations = []Operation

type Operation struct {
	Crop   *CropOperation
	Replay *ReplayOperation
}

// unmarshal
func (o *Operation) UnmarshalJSON(data []byte) error {
	var op struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &op); err != nil {
		return fmt.Errorf("failed to unmarshal operation: %w", err)
	}

	switch op.Type {
	case "crop":
		var c CropOperation
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("failed to unmarshal crop operation: %w", err)
		}
		o.Crop = &c
	case "replay":
		var r ReplayOperation
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("failed to unmarshal replay operation: %w", err)
		}
		o.Replay = &r
	default:
		return fmt.Errorf("unknown operation %q", op.Type)
	}
	return nil
}

func (o Operation) MarshalJSON() ([]byte, error) {
	switch {
	case o.Crop != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*CropOperation
		}{"crop", o.Crop})
	case o.Replay != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*ReplayOperation
		}{"replay", o.Replay})
	}
	return nil, errors.New("empty operation")
}

// CropSpec is everything needed to cut a region out of an image: where the
// region sits in display space, how large the display surface was and which
// shape to apply.
type CropSpec struct {
	Region    crop.Region `json:"region"`
	Container crop.Bounds `json:"container"`
	Shape     crop.Shape  `json:"shape"`
}

func (c CropSpec) String() string {
	return fmt.Sprintf("crop(%s,%s,in=%gx%g)", c.Shape, c.Region, c.Container.Width, c.Container.Height)
}

func (c CropSpec) ID() string {
	m := md5.New()
	_, err := m.Write([]byte(c.String()))
	if err != nil {
		log.Error().Err(err).Msg("failed to hash crop string")
		return ""
	}
	return fmt.Sprintf("%x", m.Sum(nil))
}

type CropOperation struct {
	Filename string `json:"filename"`
	CropSpec
}

// ReplayOperation drives a fresh editor with recorded pointer events and
// crops whatever region they leave behind.
type ReplayOperation struct {
	Filename  string              `json:"filename"`
	Container crop.Bounds         `json:"container"`
	Shape     crop.Shape          `json:"shape"`
	Region    *crop.Region        `json:"region,omitempty"`
	Events    []crop.PointerEvent `json:"events"`
}

// Resolve replays the events and returns the resulting crop.
func (op ReplayOperation) Resolve(opts ...crop.Option) CropOperation {
	opts = append(opts[:len(opts):len(opts)], crop.WithShape(op.Shape))
	if op.Region != nil {
		opts = append(opts, crop.WithRegion(*op.Region))
	}
	editor := crop.NewEditor(op.Container, opts...)
	for _, ev := range op.Events {
		editor.Dispatch(ev)
	}
	// a recording cut off mid-gesture ends like the pointer left the surface
	editor.PointerLeave()

	return CropOperation{
		Filename: op.Filename,
		CropSpec: CropSpec{
			Region:    editor.Region(),
			Container: editor.Bounds(),
			Shape:     editor.Shape(),
		},
	}
}

type Cropper interface {
	Crop(ctx context.Context, r io.Reader, w io.Writer, spec CropSpec) error
}

type OperationExecutor struct {
	BaseDir   string
	OutputDir string
	Cropper   Cropper
	// EditorOptions configure the editors used to replay recorded gestures.
	EditorOptions []crop.Option
}

func (r OperationExecutor) Exec(ctx context.Context, ops []Operation) error {
	if len(ops) == 0 {
		log.Ctx(ctx).Warn().Msg("no operations to execute")
		return nil
	}

	pooler := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(runtime.NumCPU())

	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", r.OutputDir, err)
	}
	for _, op := range ops {
		op := op
		pooler.Go(func(ctx context.Context) error {
			if err := r.executeOperation(ctx, op); err != nil {
				log.Ctx(ctx).Error().Err(err).
					Interface("op", op).
					Msg("failed to execute operation")
				return err
			}
			return nil
		})
	}

	if err := pooler.Wait(); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Msg("finished with errors")
		return err
	}

	return nil
}

func (r OperationExecutor) executeOperation(ctx context.Context, op Operation) error {
	if op.Crop != nil {
		return r.executeCrop(ctx, *op.Crop)
	} else if op.Replay != nil {
		resolved := op.Replay.Resolve(r.EditorOptions...)
		log.Ctx(ctx).Debug().
			Str("filename", op.Replay.Filename).
			Int("events", len(op.Replay.Events)).
			Stringer("region", resolved.Region).
			Msg("replayed gesture")
		return r.executeCrop(ctx, resolved)
	}
	return nil
}

func (r OperationExecutor) executeCrop(ctx context.Context, op CropOperation) error {
	log.Ctx(ctx).Info().Str("filename", op.Filename).Stringer("shape", op.Shape).Msg("cropping")
	sourcePath := filepath.Join(r.BaseDir, op.Filename)
	f, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", sourcePath, err)
	}
	defer f.Close()
	var b bytes.Buffer
	if err := r.Cropper.Crop(ctx, f, &b, op.CropSpec); err != nil {
		return fmt.Errorf("failed to crop %s: %w", op.Filename, err)
	}

	croppedPath := filepath.Join(r.OutputDir, outputName(op))
	wf, err := os.Create(croppedPath)
	if err != nil {
		return fmt.Errorf("failed to create cropped file %s: %w", croppedPath, err)
	}
	defer wf.Close()
	if _, err := b.WriteTo(wf); err != nil {
		return fmt.Errorf("failed to write cropped data to file %s: %w", croppedPath, err)
	}
	return nil
}

// outputName is <base>-<shape>-<id>.png, unique per source and crop.
func outputName(op CropOperation) string {
	base := strings.TrimSuffix(filepath.Base(op.Filename), filepath.Ext(op.Filename))
	return fmt.Sprintf("%s-%s-%s.png", base, op.Shape, op.ID())
}

// readOperations accepts either a JSON array of operations or one operation
// per line.
func readOperations(r io.Reader) (Operations, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read operations: %w", err)
		}
		if !isSpace(b[0]) {
			break
		}
		_, _ = br.ReadByte()
	}

	dec := json.NewDecoder(br)
	if b, _ := br.Peek(1); len(b) == 1 && b[0] == '[' {
		var ops Operations
		if err := dec.Decode(&ops); err != nil {
			return nil, fmt.Errorf("failed to decode operations: %w", err)
		}
		return ops, nil
	}

	var ops Operations
	for {
		var op Operation
		if err := dec.Decode(&op); err != nil {
			if errors.Is(err, io.EOF) {
				return ops, nil
			}
			return nil, fmt.Errorf("failed to decode operation %d: %w", len(ops)+1, err)
		}
		ops = append(ops, op)
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

package editor

import (
	"errors"
	"fmt"

	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/voxel"
	"voxeledit.ai/internal/sim/voxel/edit"
	"voxeledit.ai/internal/sim/voxel/selection"
)

func (e *Editor) apply(cmd protocol.CmdMsg) protocol.ResultMsg {
	res := protocol.NewResult(cmd)
	if cmd.ProtocolVersion != protocol.Version {
		return res.Fail(protocol.ErrProtoBadRequest, fmt.Sprintf("unsupported protocol_version %q", cmd.ProtocolVersion))
	}

	var err error
	switch cmd.Op {
	case protocol.OpBootstrap:
		err = e.doBootstrap(&res)
	case protocol.OpSetVoxel:
		err = e.doSetVoxel(cmd, &res)
	case protocol.OpGetVoxel:
		err = e.doGetVoxel(cmd, &res)
	case protocol.OpRectSelect:
		err = e.doRectSelect(cmd, &res)
	case protocol.OpFloodFill:
		err = e.doFloodFill(cmd, &res)
	case protocol.OpExtrude, protocol.OpIntrude:
		err = e.doMove(cmd, &res)
	default:
		err = badRequest("unknown op %q", cmd.Op)
	}
	if err == nil {
		return res
	}

	var ce *cmdError
	if errors.As(err, &ce) {
		return res.Fail(ce.Code, ce.Message)
	}
	e.log.Printf("cmd id=%s op=%s: %v", cmd.ID, cmd.Op, err)
	return res.Fail(protocol.ErrInternal, err.Error())
}

func (e *Editor) doBootstrap(res *protocol.ResultMsg) error {
	c, err := e.grid.Bootstrap()
	if errors.Is(err, voxel.ErrChunkExists) {
		return invalidTarget("origin chunk already exists")
	}
	if err != nil {
		return err
	}
	faces := selection.FaceSet{}
	for d := voxel.FaceDirection(0); d < voxel.NumFaces; d++ {
		faces.Add(selection.FaceID{Chunk: c, Dir: d})
	}
	res.Faces = e.refsFromSet(faces)
	return nil
}

func (e *Editor) doSetVoxel(cmd protocol.CmdMsg, res *protocol.ResultMsg) error {
	if cmd.Voxel == nil {
		return badRequest("missing voxel")
	}
	c, pos, err := e.chunkRef(cmd.Chunk, cmd.Pos)
	if err != nil {
		return err
	}
	// Out-of-range positions land in (possibly new) neighbors.
	e.grid.SetVoxel(c, pos, voxelFromV1(*cmd.Voxel))
	v := voxelToV1(e.grid.Voxel(c, pos))
	res.Voxel = &v
	return nil
}

func (e *Editor) doGetVoxel(cmd protocol.CmdMsg, res *protocol.ResultMsg) error {
	c, pos, err := e.chunkRef(cmd.Chunk, cmd.Pos)
	if err != nil {
		return err
	}
	v := voxelToV1(e.grid.Voxel(c, pos))
	res.Voxel = &v
	return nil
}

func (e *Editor) doRectSelect(cmd protocol.CmdMsg, res *protocol.ResultMsg) error {
	if cmd.To == nil || (cmd.From == nil && len(cmd.Anchors) == 0) {
		return badRequest("rect select needs to and from/anchors")
	}
	to, err := e.faceFromRef(*cmd.To)
	if err != nil {
		return err
	}
	anchors, err := e.facesFromRefs(cmd.Anchors)
	if err != nil {
		return err
	}
	var from *selection.FaceID
	if cmd.From != nil {
		f, err := e.faceFromRef(*cmd.From)
		if err != nil {
			return err
		}
		from = &f
	}

	if limit := e.cfg.MaxRectVolume; limit > 0 {
		check := anchors
		if from != nil {
			check = append([]selection.FaceID{*from}, anchors...)
		}
		for _, a := range check {
			if vol := selection.RectVolume(e.grid, a, to); vol > limit {
				return &cmdError{Code: protocol.ErrLimit, Message: fmt.Sprintf("rect volume %d exceeds %d", vol, limit)}
			}
		}
	}

	out := selection.FaceSet{}
	if from != nil {
		s, err := selection.RectSelect(e.grid, *from, to)
		if err != nil {
			return err
		}
		out.Union(s)
	}
	if len(anchors) > 0 {
		s, err := selection.RectSelectAll(e.grid, anchors, to)
		if err != nil {
			return err
		}
		out.Union(s)
	}
	res.Faces = e.refsFromSet(out)
	return nil
}

func (e *Editor) doFloodFill(cmd protocol.CmdMsg, res *protocol.ResultMsg) error {
	seeds, err := e.facesFromRefs(cmd.Faces)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return badRequest("flood fill needs at least one face")
	}
	out, err := selection.FloodFillAll(e.grid, seeds, selection.FloodFillOptions{
		ByMaterial: cmd.ByMaterial,
		MaxFaces:   e.cfg.MaxFloodFaces,
	})
	switch {
	case errors.Is(err, selection.ErrTraversalLimit):
		res.Truncated = true
		res.Code = protocol.ErrLimit
		res.Message = fmt.Sprintf("selection truncated at %d faces", e.cfg.MaxFloodFaces)
	case err != nil:
		return err
	}
	res.Faces = e.refsFromSet(out)
	return nil
}

func (e *Editor) doMove(cmd protocol.CmdMsg, res *protocol.ResultMsg) error {
	faces, err := e.facesFromRefs(cmd.Faces)
	if err != nil {
		return err
	}
	if len(faces) == 0 {
		return badRequest("%s needs at least one face", cmd.Op)
	}
	var out selection.FaceSet
	if cmd.Op == protocol.OpExtrude {
		out = edit.Extrude(e.grid, faces)
	} else {
		out = edit.Intrude(e.grid, faces)
	}
	res.Faces = e.refsFromSet(out)
	return nil
}

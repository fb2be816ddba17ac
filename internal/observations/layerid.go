package observations

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidLayerID = errors.New("invalid layer id")

// LayerID addresses one operational layer of a web map item, written "<itemId>:<layerIndex>".
type LayerID struct {
	ItemID     string
	LayerIndex int
}

// ParseLayerID splits a composite id on ':'. Segments after the layer index are ignored.
func ParseLayerID(id string) (LayerID, error) {
	itemID, rest, ok := strings.Cut(id, ":")
	if !ok {
		return LayerID{}, fmt.Errorf("%w %q: want <itemId>:<layerIndex>", ErrInvalidLayerID, id)
	}
	if itemID == "" {
		return LayerID{}, fmt.Errorf("%w %q: empty item id", ErrInvalidLayerID, id)
	}

	index, _, _ := strings.Cut(rest, ":")
	layerIndex, err := strconv.Atoi(index)
	// Only canonical digits address a layer: "+1" and "01" are rejected
	if err != nil || layerIndex < 0 || strconv.Itoa(layerIndex) != index {
		return LayerID{}, fmt.Errorf("%w %q: layer index must be a non-negative integer", ErrInvalidLayerID, id)
	}

	return LayerID{ItemID: itemID, LayerIndex: layerIndex}, nil
}

func (id LayerID) String() string {
	return id.ItemID + ":" + strconv.Itoa(id.LayerIndex)
}

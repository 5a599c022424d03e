// Package checkpointer persists agent value networks by training
// epoch. Checkpoints are written under dir/models/<agent name>/ with
// one file per epoch, so a run directory holds the full history of a
// training run.
package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qvalue/qvalue/network"
)

func init() {
	gob.Register(network.NewMLP())
}

// Save serializes net under dir/models/<name>/<epoch>.bin and returns
// the path of the written checkpoint.
func Save(dir, name string, epoch int, net network.NeuralNet) (string,
	error) {
	modelDir := filepath.Join(dir, "models", name)
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", fmt.Errorf("save: could not create model directory: %v",
			err)
	}

	path := filepath.Join(modelDir, fmt.Sprintf("%v.bin", epoch))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save: could not create checkpoint: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(&net); err != nil {
		return "", fmt.Errorf("save: could not encode network: %v", err)
	}
	return path, nil
}

// Load reads a network checkpoint written by Save.
func Load(path string) (network.NeuralNet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: could not open checkpoint: %v", err)
	}
	defer file.Close()

	var net network.NeuralNet
	if err := gob.NewDecoder(file).Decode(&net); err != nil {
		return nil, fmt.Errorf("load: could not decode network: %v", err)
	}
	return net, nil
}

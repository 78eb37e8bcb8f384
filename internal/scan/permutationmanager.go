package scan

import (
	"fmt"
	"math/rand"
	"sync"
)

// PermutationManager holds a shuffled view over a growing FileItems slice.
// New items appended to the slice are shuffled among themselves and added
// after the existing order, so pages already placed keep their position.
type PermutationManager struct {
	mu              sync.RWMutex
	data            *FileItems
	shuffledMap     []int // shuffledMap[shuffledIdx] = originalIdx
	rng             *rand.Rand
	lastKnownLength int
}

// NewPermutationManager shuffles the indices of slice using seed.
func NewPermutationManager(slice *FileItems, seed int64) *PermutationManager {
	pm := &PermutationManager{data: slice, rng: rand.New(rand.NewSource(seed))}
	pm.SyncNewData()
	return pm
}

// SyncNewData shuffles any items appended since the last sync into the order.
func (pm *PermutationManager) SyncNewData() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	n := len(*pm.data)
	if n <= pm.lastKnownLength {
		return
	}
	fresh := make([]int, 0, n-pm.lastKnownLength)
	for i := pm.lastKnownLength; i < n; i++ {
		fresh = append(fresh, i)
	}
	pm.rng.Shuffle(len(fresh), func(i, j int) { fresh[i], fresh[j] = fresh[j], fresh[i] })
	pm.shuffledMap = append(pm.shuffledMap, fresh...)
	pm.lastKnownLength = n
}

// Get returns the item at a shuffled position.
func (pm *PermutationManager) Get(shuffledIndex int) (FileItem, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if shuffledIndex < 0 || shuffledIndex >= len(pm.shuffledMap) {
		return FileItem{}, fmt.Errorf("shuffled index %d out of bounds (current size: %d)", shuffledIndex, len(pm.shuffledMap))
	}
	return (*pm.data)[pm.shuffledMap[shuffledIndex]], nil
}

// Len returns the number of items in the shuffled order.
func (pm *PermutationManager) Len() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.shuffledMap)
}

// Items returns the files in shuffled order.
func (pm *PermutationManager) Items() FileItems {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make(FileItems, len(pm.shuffledMap))
	for i, orig := range pm.shuffledMap {
		out[i] = (*pm.data)[orig]
	}
	return out
}

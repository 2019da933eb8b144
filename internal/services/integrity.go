package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/store"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// IntegrityService keeps a Merkle tree over the complaint ledger so the
// published state of every ticket can be checked against a single root.
type IntegrityService struct {
	mu            sync.RWMutex
	leaves        []string
	layers        [][]string
	root          string
	lastBuildTime time.Time
	logger        *zap.SugaredLogger
}

// NewIntegrityService creates an empty tree
func NewIntegrityService(logger *zap.SugaredLogger) *IntegrityService {
	return &IntegrityService{logger: logger}
}

// LedgerLeaf hashes the tamper-relevant state of one complaint
func LedgerLeaf(c models.Complaint) string {
	sum := blake3.Sum256([]byte(c.TicketID + "|" + string(c.Status) + "|" + string(c.Priority) + "|" + strconv.FormatInt(c.Version, 10)))
	return hex.EncodeToString(sum[:])
}

// BuildFromComplaints rebuilds the tree with one leaf per complaint, ordered by id
func (m *IntegrityService) BuildFromComplaints(complaints []models.Complaint) {
	ordered := make([]models.Complaint, len(complaints))
	copy(ordered, complaints)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	leaves := make([]string, len(ordered))
	for i, c := range ordered {
		leaves[i] = LedgerLeaf(c)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves = leaves
	m.buildTree()
	m.lastBuildTime = time.Now().UTC()

	m.logger.Infow("Ledger tree rebuilt",
		"leaves", len(m.leaves),
		"root", m.root,
	)
}

// Root returns the current root, empty before the first build
func (m *IntegrityService) Root() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root
}

// LeafCount returns the number of ledger entries in the tree
func (m *IntegrityService) LeafCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.leaves)
}

// LastBuildTime returns when the tree was last rebuilt
func (m *IntegrityService) LastBuildTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastBuildTime
}

// Proof returns the inclusion proof of leaf index
func (m *IntegrityService) Proof(index int) (*models.MerkleProof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index < 0 || index >= len(m.leaves) {
		return nil, fmt.Errorf("index %d out of range (0-%d)", index, len(m.leaves)-1)
	}

	proof := &models.MerkleProof{
		LeafHash: m.leaves[index],
		Root:     m.root,
		Index:    index,
		Proof:    make([]models.ProofStep, 0),
	}

	current := index
	for level := 0; level < len(m.layers)-1; level++ {
		layer := m.layers[level]
		sibling := current ^ 1
		position := "right"
		if current%2 == 1 {
			position = "left"
		}
		hash := layer[current]
		if sibling < len(layer) {
			hash = layer[sibling]
		}
		proof.Proof = append(proof.Proof, models.ProofStep{Hash: hash, Position: position})
		current /= 2
	}

	proof.Verified = VerifyProof(*proof)
	return proof, nil
}

// VerifyProof recomputes the root from the leaf and its path
func VerifyProof(p models.MerkleProof) bool {
	if p.Root == "" {
		return false
	}
	hash := p.LeafHash
	for _, step := range p.Proof {
		switch step.Position {
		case "left":
			hash = hashPair(step.Hash, hash)
		case "right":
			hash = hashPair(hash, step.Hash)
		default:
			return false
		}
	}
	return hash == p.Root
}

// buildTree constructs the layers from leaves (must hold write lock).
// An odd node is paired with itself.
func (m *IntegrityService) buildTree() {
	if len(m.leaves) == 0 {
		m.root = ""
		m.layers = nil
		return
	}

	layer := make([]string, len(m.leaves))
	copy(layer, m.leaves)
	m.layers = [][]string{layer}

	for len(layer) > 1 {
		next := make([]string, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			right := layer[i]
			if i+1 < len(layer) {
				right = layer[i+1]
			}
			next = append(next, hashPair(layer[i], right))
		}
		m.layers = append(m.layers, next)
		layer = next
	}

	m.root = layer[0]
}

func hashPair(left, right string) string {
	sum := blake3.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}

// IntegrityWorker periodically rebuilds the ledger tree from the store
type IntegrityWorker struct {
	integrity *IntegrityService
	store     store.ComplaintStore
	logger    *zap.SugaredLogger
}

// NewIntegrityWorker creates a new background integrity worker
func NewIntegrityWorker(is *IntegrityService, st store.ComplaintStore, logger *zap.SugaredLogger) *IntegrityWorker {
	return &IntegrityWorker{integrity: is, store: st, logger: logger}
}

// Start rebuilds once, then every interval until ctx is done
func (w *IntegrityWorker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.Rebuild(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Integrity worker stopped")
			return
		case <-ticker.C:
			w.Rebuild(ctx)
		}
	}
}

// Rebuild reloads every complaint and rebuilds the tree. A store failure
// keeps the previous tree.
func (w *IntegrityWorker) Rebuild(ctx context.Context) {
	complaints, err := w.store.ListComplaints(ctx)
	if err != nil {
		w.logger.Warnw("Ledger rebuild skipped", "error", err)
		return
	}
	w.integrity.BuildFromComplaints(complaints)
}

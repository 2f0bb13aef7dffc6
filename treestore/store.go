// Package treestore saves search trees to a SQLite database so they can be
// queried after the fact.
package treestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/domino14/gamesearch/tree"
)

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	label TEXT NOT NULL,
	root TEXT NOT NULL,
	value REAL NOT NULL,
	num_nodes INTEGER NOT NULL,
	num_pruned INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	search_id INTEGER NOT NULL REFERENCES searches(id),
	id INTEGER NOT NULL,
	parent_id INTEGER,
	depth INTEGER NOT NULL,
	idx INTEGER NOT NULL,
	move TEXT NOT NULL,
	value REAL NOT NULL,
	inherited_value REAL NOT NULL,
	player1 INTEGER NOT NULL,
	selected INTEGER NOT NULL,
	alpha REAL NOT NULL,
	beta REAL NOT NULL,
	pruned INTEGER NOT NULL,
	comment TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	PRIMARY KEY (search_id, id)
);
CREATE INDEX IF NOT EXISTS nodes_parent ON nodes(search_id, parent_id);
`

var ErrNotFound = errors.New("search not found")

type Store struct {
	db *sql.DB
}

// Search is one saved search.
type Search struct {
	ID        int64
	CreatedAt time.Time
	Label     string
	Root      string
	Value     float64
	NumNodes  int
	NumPruned int
}

// Node is one saved tree node. ParentID is zero for the root.
type Node struct {
	ID             int64
	ParentID       int64
	Depth          int
	Index          int
	Move           string
	Value          float64
	InheritedValue float64
	Player1        bool
	Selected       bool
	Alpha          float64
	Beta           float64
	Pruned         bool
	Comment        string
	Fingerprint    string
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 1000"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}

// Save writes the tree rooted at root and returns the id of the new
// search. Writes that find the database locked are retried.
func (s *Store) Save(ctx context.Context, label string, root *tree.Node) (int64, error) {
	if root == nil {
		return 0, errors.New("nothing to save")
	}
	var id int64
	err := retry.Do(
		func() error {
			var err error
			id, err = s.save(ctx, label, root)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("database-busy-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	return id, err
}

func (s *Store) save(ctx context.Context, label string, root *tree.Node) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rootDesc, value := "(root)", 0.0
	if root.Move != nil {
		rootDesc, value = root.Move.ShortDescription(), root.Move.InheritedValue()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO searches (created_at, label, root, value, num_nodes, num_pruned) VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), label, rootDesc, value, root.Len(), root.PrunedCount())
	if err != nil {
		return 0, err
	}
	searchID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (search_id, id, parent_id, depth, idx, move, value,
		inherited_value, player1, selected, alpha, beta, pruned, comment, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	ids := map[*tree.Node]int64{}
	var walkErr error
	root.Walk(func(n *tree.Node, depth int) bool {
		if walkErr != nil {
			return false
		}
		id := int64(len(ids) + 1)
		ids[n] = id
		var parentID sql.NullInt64
		if p := n.Parent(); p != nil && n != root {
			parentID = sql.NullInt64{Int64: ids[p], Valid: true}
		}
		desc, v, inh, p1, sel := "(root)", 0.0, 0.0, false, false
		if n.Move != nil {
			desc, v, inh = n.Move.ShortDescription(), n.Move.Value(), n.Move.InheritedValue()
			p1, sel = n.Move.Player1(), n.Move.Selected()
		}
		_, walkErr = stmt.ExecContext(ctx, searchID, id, parentID, depth, n.Index(), desc, v, inh,
			p1, sel, n.Alpha, n.Beta, n.Pruned, n.Comment, strconv.FormatUint(n.Fingerprint(), 16))
		return walkErr == nil
	})
	if walkErr != nil {
		return 0, walkErr
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Debug().Int64("search-id", searchID).Int("nodes", len(ids)).Msg("saved-search-tree")
	return searchID, nil
}

// Searches lists the saved searches, newest first.
func (s *Store) Searches(ctx context.Context) ([]Search, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, label, root, value, num_nodes, num_pruned FROM searches ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Search
	for rows.Next() {
		var sr Search
		var created string
		if err := rows.Scan(&sr.ID, &created, &sr.Label, &sr.Root, &sr.Value, &sr.NumNodes, &sr.NumPruned); err != nil {
			return nil, err
		}
		sr.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// Nodes loads the nodes of a saved search in depth-first order.
func (s *Store) Nodes(ctx context.Context, searchID int64) ([]Node, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, parent_id, depth, idx, move, value, inherited_value,
		player1, selected, alpha, beta, pruned, comment, fingerprint
		FROM nodes WHERE search_id = ? ORDER BY id`, searchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Node
	for rows.Next() {
		var n Node
		var parentID sql.NullInt64
		if err := rows.Scan(&n.ID, &parentID, &n.Depth, &n.Index, &n.Move, &n.Value, &n.InheritedValue,
			&n.Player1, &n.Selected, &n.Alpha, &n.Beta, &n.Pruned, &n.Comment, &n.Fingerprint); err != nil {
			return nil, err
		}
		n.ParentID = parentID.Int64
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, searchID)
	}
	return out, nil
}

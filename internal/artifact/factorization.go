package artifact

import (
	"fmt"

	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/index"
	"github.com/kailas-cloud/recserve/internal/domain/movie"
	"github.com/kailas-cloud/recserve/internal/domain/user"
	"github.com/kailas-cloud/recserve/internal/scoring"
)

type factorizationBundle struct {
	UserIDs               []int         `json:"user_ids"`
	ItemIDs               []int         `json:"item_ids"`
	UserEmbeddings        [][]float64   `json:"user_embeddings"`
	UserBiases            []float64     `json:"user_biases"`
	ItemFeatureEmbeddings [][]float64   `json:"item_feature_embeddings"`
	ItemFeatureBiases     []float64     `json:"item_feature_biases"`
	ItemFeatures          *sparseMatrix `json:"item_features"`
	Movies                []movieRow    `json:"movies"`
	Ratings               []ratingRow   `json:"ratings"`
}

type sparseMatrix struct {
	Rows    int           `json:"rows"`
	Cols    int           `json:"cols"`
	Entries []sparseEntry `json:"entries"`
}

type sparseEntry struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Value float64 `json:"value"`
}

type ratingRow struct {
	UserID int     `json:"user_id"`
	ItemID int     `json:"item_id"`
	Rating float64 `json:"rating"`
}

// Factorization is a loaded factorization model with everything needed to serve it.
// Directory holds every model user with the items they rated, in rating order.
type Factorization struct {
	Model     *scoring.Factorization
	Users     *index.Index
	Items     *index.Index
	Features  *scoring.FeatureMatrix
	Catalog   *movie.Catalog
	Directory *user.Directory
	Ratings   int
}

// Universe returns the scorable item ids in model index order.
func (f *Factorization) Universe() []int { return f.Items.IDs() }

// LoadFactorization reads a factorization bundle and checks it for consistency.
func LoadFactorization(path string, opts Options) (*Factorization, error) {
	var b factorizationBundle
	if err := decodeBundle(path, opts, &b); err != nil {
		return nil, err
	}
	if err := b.checkPresent(); err != nil {
		return nil, domain.NewLoadError(path, "bundle", err)
	}

	users, err := index.New(b.UserIDs)
	if err != nil {
		return nil, domain.NewLoadError(path, "user_ids", err)
	}
	items, err := index.New(b.ItemIDs)
	if err != nil {
		return nil, domain.NewLoadError(path, "item_ids", err)
	}

	model, err := scoring.NewFactorization(b.UserEmbeddings, b.UserBiases, b.ItemFeatureEmbeddings, b.ItemFeatureBiases)
	if err != nil {
		return nil, domain.NewLoadError(path, "model", err)
	}
	if model.Users() != users.Len() {
		return nil, domain.NewLoadError(path, "user_ids",
			fmt.Errorf("%d user ids for %d user embeddings", users.Len(), model.Users()))
	}

	if b.ItemFeatures.Rows != items.Len() {
		return nil, domain.NewLoadError(path, "item_features",
			fmt.Errorf("%d rows for %d item ids", b.ItemFeatures.Rows, items.Len()))
	}
	if b.ItemFeatures.Cols != model.Features() {
		return nil, domain.NewLoadError(path, "item_features",
			fmt.Errorf("%d columns for %d feature embeddings", b.ItemFeatures.Cols, model.Features()))
	}
	entries := make([]scoring.Entry, len(b.ItemFeatures.Entries))
	for i, e := range b.ItemFeatures.Entries {
		entries[i] = scoring.Entry{Row: e.Row, Col: e.Col, Value: e.Value}
	}
	features, err := scoring.NewFeatureMatrix(b.ItemFeatures.Rows, b.ItemFeatures.Cols, entries)
	if err != nil {
		return nil, domain.NewLoadError(path, "item_features", err)
	}

	catalog, err := buildCatalog(b.Movies)
	if err != nil {
		return nil, domain.NewLoadError(path, "movies", err)
	}

	dir, err := buildRatedDirectory(b.UserIDs, b.Ratings, users, items)
	if err != nil {
		return nil, domain.NewLoadError(path, "ratings", err)
	}

	return &Factorization{
		Model:     model,
		Users:     users,
		Items:     items,
		Features:  features,
		Catalog:   catalog,
		Directory: dir,
		Ratings:   len(b.Ratings),
	}, nil
}

func (b *factorizationBundle) checkPresent() error {
	switch {
	case b.UserIDs == nil:
		return fmt.Errorf("user_ids is missing")
	case b.ItemIDs == nil:
		return fmt.Errorf("item_ids is missing")
	case b.UserEmbeddings == nil:
		return fmt.Errorf("user_embeddings is missing")
	case b.UserBiases == nil:
		return fmt.Errorf("user_biases is missing")
	case b.ItemFeatureEmbeddings == nil:
		return fmt.Errorf("item_feature_embeddings is missing")
	case b.ItemFeatureBiases == nil:
		return fmt.Errorf("item_feature_biases is missing")
	case b.ItemFeatures == nil:
		return fmt.Errorf("item_features is missing")
	case b.Movies == nil:
		return fmt.Errorf("movies is missing")
	case b.Ratings == nil:
		return fmt.Errorf("ratings is missing")
	}
	return nil
}

// buildRatedDirectory attaches each user's rated items. Ratings must reference model ids.
func buildRatedDirectory(userIDs []int, ratings []ratingRow, users, items *index.Index) (*user.Directory, error) {
	seen := make(map[int][]int, len(userIDs))
	for i, r := range ratings {
		if !users.Contains(r.UserID) {
			return nil, fmt.Errorf("rating %d references user %d outside the model", i, r.UserID)
		}
		if !items.Contains(r.ItemID) {
			return nil, fmt.Errorf("rating %d references item %d outside the model", i, r.ItemID)
		}
		seen[r.UserID] = append(seen[r.UserID], r.ItemID)
	}
	all := make([]user.User, len(userIDs))
	for i, id := range userIDs {
		all[i] = user.New(id, nil, seen[id])
	}
	return user.NewDirectory(all)
}

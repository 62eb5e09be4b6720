package artifact

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/feature"
	"github.com/kailas-cloud/recserve/internal/domain/index"
	"github.com/kailas-cloud/recserve/internal/domain/movie"
	"github.com/kailas-cloud/recserve/internal/domain/user"
	"github.com/kailas-cloud/recserve/internal/scoring"
)

// defaultBatchNormEps matches the training framework default when a bundle omits eps.
const defaultBatchNormEps = 1e-5

type linearLayer struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias"`
}

type batchNormLayer struct {
	Weight      []float64 `json:"weight"`
	Bias        []float64 `json:"bias"`
	RunningMean []float64 `json:"running_mean"`
	RunningVar  []float64 `json:"running_var"`
	Eps         *float64  `json:"eps"`
}

type valueWeights struct {
	FC1 *linearLayer    `json:"fc1"`
	BN1 *batchNormLayer `json:"bn1"`
	FC2 *linearLayer    `json:"fc2"`
	BN2 *batchNormLayer `json:"bn2"`
	FC3 *linearLayer    `json:"fc3"`
}

type valueData struct {
	NumAgeGroups   int        `json:"num_age_groups"`
	NumGenders     int        `json:"num_genders"`
	NumOccupations int        `json:"num_occupations"`
	GenreNames     []string   `json:"genre_names"`
	MovieIDs       []int      `json:"movie_ids"`
	Users          []userRow  `json:"users"`
	Movies         []movieRow `json:"movies"`
}

type userRow struct {
	UserID     *int        `json:"user_id"`
	AgeGroup   categorical `json:"age_group"`
	Gender     categorical `json:"gender"`
	Occupation categorical `json:"occupation"`
	Watched    []int       `json:"watched"`
}

// Value is a loaded value network with its feature layout and tables.
// Actions maps item ids to network output positions; its order is the item universe.
type Value struct {
	Network   *scoring.ValueNetwork
	Schema    feature.Schema
	Encoder   *feature.Encoder
	Actions   *index.Index
	Directory *user.Directory
	Catalog   *movie.Catalog
}

// Universe returns the scorable item ids in action order.
func (v *Value) Universe() []int { return v.Actions.IDs() }

// LoadValue reads the network weights and the data bundle and checks they agree.
func LoadValue(weightsPath, dataPath string, opts Options) (*Value, error) {
	var w valueWeights
	if err := decodeBundle(weightsPath, opts, &w); err != nil {
		return nil, err
	}
	net, err := w.network()
	if err != nil {
		return nil, domain.NewLoadError(weightsPath, "network", err)
	}

	var d valueData
	if err := decodeBundle(dataPath, opts, &d); err != nil {
		return nil, err
	}
	if d.MovieIDs == nil {
		return nil, domain.NewLoadError(dataPath, "movie_ids", fmt.Errorf("movie_ids is missing"))
	}
	if d.Users == nil {
		return nil, domain.NewLoadError(dataPath, "users", fmt.Errorf("users is missing"))
	}
	if d.Movies == nil {
		return nil, domain.NewLoadError(dataPath, "movies", fmt.Errorf("movies is missing"))
	}

	schema := feature.Schema{
		AgeGroups:   d.NumAgeGroups,
		Genders:     d.NumGenders,
		Occupations: d.NumOccupations,
		Genres:      d.GenreNames,
	}
	if err := schema.Validate(); err != nil {
		return nil, domain.NewLoadError(dataPath, "schema", err)
	}
	if in := net.InputDim(); in != schema.UserDim() && in != schema.Dim() {
		return nil, domain.NewLoadError(weightsPath, "fc1",
			fmt.Errorf("network expects %d inputs, data defines %d (user) or %d (user+genres)",
				in, schema.UserDim(), schema.Dim()))
	}

	actions, err := index.New(d.MovieIDs)
	if err != nil {
		return nil, domain.NewLoadError(dataPath, "movie_ids", err)
	}
	if actions.Len() != net.Actions() {
		return nil, domain.NewLoadError(weightsPath, "fc3",
			fmt.Errorf("network has %d actions for %d movie ids", net.Actions(), actions.Len()))
	}

	dir, err := buildValueDirectory(d.Users)
	if err != nil {
		return nil, domain.NewLoadError(dataPath, "users", err)
	}
	catalog, err := buildCatalog(d.Movies)
	if err != nil {
		return nil, domain.NewLoadError(dataPath, "movies", err)
	}
	enc, err := feature.NewEncoder(schema, dir, catalog)
	if err != nil {
		return nil, domain.NewLoadError(dataPath, "schema", err)
	}

	return &Value{
		Network:   net,
		Schema:    schema,
		Encoder:   enc,
		Actions:   actions,
		Directory: dir,
		Catalog:   catalog,
	}, nil
}

func (w *valueWeights) network() (*scoring.ValueNetwork, error) {
	for _, l := range []struct {
		name    string
		present bool
	}{
		{"fc1", w.FC1 != nil}, {"bn1", w.BN1 != nil}, {"fc2", w.FC2 != nil}, {"bn2", w.BN2 != nil}, {"fc3", w.FC3 != nil},
	} {
		if !l.present {
			return nil, fmt.Errorf("layer %s is missing", l.name)
		}
	}
	return scoring.NewValueNetwork(w.FC1.layer(), w.BN1.layer(), w.FC2.layer(), w.BN2.layer(), w.FC3.layer())
}

func (l *linearLayer) layer() scoring.Linear {
	return scoring.Linear{Weight: l.Weight, Bias: l.Bias}
}

func (b *batchNormLayer) layer() scoring.BatchNorm {
	eps := defaultBatchNormEps
	if b.Eps != nil {
		eps = *b.Eps
	}
	return scoring.BatchNorm{
		Weight:      b.Weight,
		Bias:        b.Bias,
		RunningMean: b.RunningMean,
		RunningVar:  b.RunningVar,
		Eps:         eps,
	}
}

func buildValueDirectory(rows []userRow) (*user.Directory, error) {
	users := make([]user.User, 0, len(rows))
	for i, r := range rows {
		if r.UserID == nil {
			return nil, fmt.Errorf("user row %d has no user_id", i)
		}
		var demo *user.Demographics
		if r.AgeGroup.set || r.Gender.set || r.Occupation.set {
			demo = &user.Demographics{
				AgeGroup:   bucket(r.AgeGroup),
				Gender:     bucket(r.Gender),
				Occupation: r.Occupation.value,
			}
		}
		users = append(users, user.New(*r.UserID, demo, r.Watched))
	}
	return user.NewDirectory(users)
}

// bucket converts an integral categorical into a block index; anything else
// maps to -1, which the encoder treats as out of range.
func bucket(c categorical) int {
	if !c.set {
		return -1
	}
	v, err := strconv.Atoi(c.value)
	if err != nil {
		return -1
	}
	return v
}

package raster

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// FitGCPs derives an affine GeoTransform from ground control points by linear
// least squares. At least three non-collinear points are required.
func FitGCPs(gcps []GCP) (GeoTransform, error) {
	n := len(gcps)
	if n < 3 {
		return GeoTransform{}, eris.Errorf("raster: need at least 3 GCPs, got %d", n)
	}
	if collinear(gcps) {
		return GeoTransform{}, eris.New("raster: GCPs are collinear in pixel space")
	}

	a := mat.NewDense(n*2, 6, nil)
	b := mat.NewVecDense(n*2, nil)
	for i, g := range gcps {
		a.Set(i*2, 0, 1)
		a.Set(i*2, 1, g.Pixel)
		a.Set(i*2, 2, g.Line)
		b.SetVec(i*2, g.X)

		a.Set(i*2+1, 3, 1)
		a.Set(i*2+1, 4, g.Pixel)
		a.Set(i*2+1, 5, g.Line)
		b.SetVec(i*2+1, g.Y)
	}

	var qr mat.QR
	qr.Factorize(a)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, b); err != nil {
		return GeoTransform{}, eris.Wrap(err, "raster: solve GCP transform")
	}

	var gt GeoTransform
	for i := range gt {
		gt[i] = params.AtVec(i)
	}
	if _, ok := gt.Invert(); !ok {
		return GeoTransform{}, eris.New("raster: GCPs produce a degenerate transform")
	}
	return gt, nil
}

// collinear reports whether the pixel/line positions span less than two
// dimensions, using the determinant of their covariance.
func collinear(gcps []GCP) bool {
	var mp, ml float64
	for _, g := range gcps {
		mp += g.Pixel
		ml += g.Line
	}
	n := float64(len(gcps))
	mp /= n
	ml /= n

	var spp, sll, spl float64
	for _, g := range gcps {
		dp, dl := g.Pixel-mp, g.Line-ml
		spp += dp * dp
		sll += dl * dl
		spl += dp * dl
	}
	trace := spp + sll
	if trace == 0 {
		return true
	}
	return spp*sll-spl*spl <= 1e-12*trace*trace
}

// gcpView exposes a dataset under a GCP-derived transform and CRS.
type gcpView struct {
	Dataset
	transform GeoTransform
	crs       string
}

func (v *gcpView) Profile() Profile {
	p := v.Dataset.Profile()
	p.Transform = v.transform
	p.CRS = v.crs
	return p
}

// Close releases the view only; the underlying dataset is owned by the Scene.
func (v *gcpView) Close() error {
	return nil
}

// Scene pairs an opened dataset with its georeferenced view. When the
// dataset declares no CRS but carries usable GCPs, View exposes the
// GCP-derived transform in the GCP CRS; otherwise View is the dataset itself.
type Scene struct {
	Source     Dataset
	View       Dataset
	GCPDerived bool
	GCPCRS     string

	closed bool
}

// OpenGeoreferenced opens path and resolves its georeferencing.
func OpenGeoreferenced(o Opener, path string) (*Scene, error) {
	ds, err := o.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}

	s := &Scene{Source: ds, View: ds}
	if ds.Profile().CRS != "" {
		return s, nil
	}

	gcps, gcpCRS := ds.GCPs()
	if len(gcps) == 0 || gcpCRS == "" {
		return s, nil
	}
	gt, err := FitGCPs(gcps)
	if err != nil {
		zap.L().Debug("raster: GCPs not usable",
			zap.String("path", path),
			zap.Int("gcps", len(gcps)),
			zap.Error(err),
		)
		return s, nil
	}

	s.View = &gcpView{Dataset: ds, transform: gt, crs: gcpCRS}
	s.GCPDerived = true
	s.GCPCRS = gcpCRS
	return s, nil
}

// Profile returns the georeferenced profile.
func (s *Scene) Profile() Profile {
	return s.View.Profile()
}

// Close releases the view (when one was created) and the dataset exactly
// once. Further calls are no-ops.
func (s *Scene) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true

	var viewErr error
	if s.GCPDerived {
		viewErr = s.View.Close()
	}
	if err := s.Source.Close(); err != nil {
		return eris.Wrapf(err, "raster: close %s", s.Source.Path())
	}
	return viewErr
}

package camera

import (
	"math"
	"math/rand"

	"row-major/lumen/ray"
	"row-major/lumen/vmath/vec3"
)

// Camera turns normalized image coordinates into primary rays.  s runs left to
// right and t bottom to top, both over [0, 1].
type Camera interface {
	GetRay(s, t float64, rng *rand.Rand) ray.Ray
}

type ThinLensOptions struct {
	LookFrom vec3.T
	LookAt   vec3.T
	Up       vec3.T

	// Vertical field of view, in degrees.
	VFOV float64

	// Width over height.
	Aspect float64

	Aperture  float64
	FocusDist float64

	// Rays are stamped uniformly over [ShutterOpen, ShutterOpen+ShutterDuration),
	// in seconds.
	ShutterOpen     float64
	ShutterDuration float64
}

// ThinLens is a perspective camera with depth of field.  Points at FocusDist
// from the lens are sharp; the blur elsewhere grows with Aperture.
type ThinLens struct {
	origin          vec3.T
	lowerLeftCorner vec3.T
	horizontal      vec3.T
	vertical        vec3.T
	u, v, w         vec3.T
	lensRadius      float64
	shutterOpen     float64
	shutterDuration float64
}

func NewThinLens(o ThinLensOptions) *ThinLens {
	theta := o.VFOV * math.Pi / 180.0
	halfHeight := math.Tan(theta / 2.0)
	halfWidth := o.Aspect * halfHeight

	w := vec3.Normalize(vec3.SubVV(o.LookFrom, o.LookAt))
	u := vec3.CProd(o.Up, w)
	v := vec3.CProd(w, u)

	f := o.FocusDist
	lowerLeft := o.LookFrom
	lowerLeft = vec3.SubVV(lowerLeft, vec3.MulVS(u, halfWidth*f))
	lowerLeft = vec3.SubVV(lowerLeft, vec3.MulVS(v, halfHeight*f))
	lowerLeft = vec3.SubVV(lowerLeft, vec3.MulVS(w, f))

	return &ThinLens{
		origin:          o.LookFrom,
		lowerLeftCorner: lowerLeft,
		horizontal:      vec3.MulVS(u, 2.0*halfWidth*f),
		vertical:        vec3.MulVS(v, 2.0*halfHeight*f),
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      o.Aperture / 2.0,
		shutterOpen:     o.ShutterOpen,
		shutterDuration: o.ShutterDuration,
	}
}

func (c *ThinLens) GetRay(s, t float64, rng *rand.Rand) ray.Ray {
	rd := vec3.MulVS(vec3.RandomInUnitDisk(rng), c.lensRadius)
	offset := vec3.AddVV(vec3.MulVS(c.u, rd[0]), vec3.MulVS(c.v, rd[1]))
	time := c.shutterOpen + c.shutterDuration*rng.Float64()

	origin := vec3.AddVV(c.origin, offset)
	target := vec3.AddVV(c.lowerLeftCorner, vec3.AddVV(vec3.MulVS(c.horizontal, s), vec3.MulVS(c.vertical, t)))

	return ray.Ray{
		Point: origin,
		Slope: vec3.SubVV(target, origin),
		Time:  time,
	}
}

// Basis returns the camera's right, up and backward vectors.
func (c *ThinLens) Basis() (u, v, w vec3.T) {
	return c.u, c.v, c.w
}

package mediator

import (
	"reflect"
	"time"

	"github.com/samber/lo"
)

// Discriminator selects stored records, see Store.Find.
type Discriminator interface {
	Match(v View) bool
}

// DiscriminatorFunc adapts a function to a Discriminator.
type DiscriminatorFunc func(v View) bool

// Match implements Discriminator.
func (f DiscriminatorFunc) Match(v View) bool { return f(v) }

// All matches every record.
func All() Discriminator {
	return DiscriminatorFunc(func(View) bool { return true })
}

// KindIs matches records of the given kind.
func KindIs(k Kind) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		return v.Record().Kind == k.String()
	})
}

// NameIs matches records whose command or event name equals name.
func NameIs(name string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		return v.Record().Name == name
	})
}

// PayloadOf matches records whose payload was stored from a T.
//
//	store.Find(ctx, mediator.PayloadOf[OrderPlaced]())
func PayloadOf[T any]() Discriminator {
	name := typeName(reflect.TypeFor[T]())
	return DiscriminatorFunc(func(v View) bool {
		return v.Record().Type == name
	})
}

// Since matches records created at or after t.
func Since(t time.Time) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		return !v.Record().At.Before(t)
	})
}

// HasFields matches when every path exists in the record's JSON form.
//
//	store.Find(ctx, mediator.HasFields("payload.order_id"))
func HasFields(paths ...string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		return lo.EveryBy(paths, v.HasField)
	})
}

// FieldEquals matches when the path holds the given string value.
func FieldEquals(path, value string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		s, ok := v.GetString(path)
		return ok && s == value
	})
}

// And matches when every discriminator matches. An empty And matches
// everything.
func And(ds ...Discriminator) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		return lo.EveryBy(ds, func(d Discriminator) bool { return d.Match(v) })
	})
}

// Or matches when any discriminator matches. An empty Or matches nothing.
func Or(ds ...Discriminator) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		return lo.SomeBy(ds, func(d Discriminator) bool { return d.Match(v) })
	})
}

// Not inverts a Discriminator.
func Not(d Discriminator) Discriminator {
	return DiscriminatorFunc(func(v View) bool { return !d.Match(v) })
}

package game

import "sync/atomic"

// ItemTemplate is the static definition an item instance is stamped
// from.
type ItemTemplate struct {
	Name      string
	Char      string
	Color     string
	Weight    float64
	Stackable bool
	MaxStack  int
}

// itemTemplates is the authored item vocabulary, keyed by template id.
var itemTemplates = map[string]ItemTemplate{
	"rusty_sword": {
		Name:   "Rusty Sword",
		Char:   "/",
		Color:  "#8b4513",
		Weight: 3.0,
	},
	"iron_sword": {
		Name:   "Iron Sword",
		Char:   "/",
		Color:  "#c0c0c0",
		Weight: 4.0,
	},
	"wooden_staff": {
		Name:   "Wooden Staff",
		Char:   "|",
		Color:  "#8b4513",
		Weight: 2.0,
	},
	"leather_armor": {
		Name:   "Leather Armor",
		Char:   "[",
		Color:  "#8b4513",
		Weight: 5.0,
	},
	"iron_helm": {
		Name:   "Iron Helm",
		Char:   "^",
		Color:  "#c0c0c0",
		Weight: 2.0,
	},
	"health_potion": {
		Name:      "Health Potion",
		Char:      "!",
		Color:     "#ff0000",
		Weight:    0.5,
		Stackable: true,
		MaxStack:  10,
	},
	"mana_potion": {
		Name:      "Mana Potion",
		Char:      "!",
		Color:     "#0000ff",
		Weight:    0.5,
		Stackable: true,
		MaxStack:  10,
	},
	"bone": {
		Name:      "Bone",
		Char:      "-",
		Color:     "#f5f5dc",
		Weight:    0.2,
		Stackable: true,
		MaxStack:  20,
	},
	"goblin_ear": {
		Name:      "Goblin Ear",
		Char:      "e",
		Color:     "#228b22",
		Weight:    0.1,
		Stackable: true,
		MaxStack:  50,
	},
}

var nextItemID uint64

// NewItem stamps an item instance from a template. Returns false for
// unknown template ids.
func NewItem(templateID string, count int) (Item, bool) {
	tmpl, ok := itemTemplates[templateID]
	if !ok {
		return Item{}, false
	}
	if count < 1 {
		count = 1
	}
	stackCount := 1
	maxStack := 1
	if tmpl.Stackable {
		stackCount = count
		maxStack = tmpl.MaxStack
	}
	return Item{
		ID:         atomic.AddUint64(&nextItemID, 1),
		TemplateID: templateID,
		Name:       tmpl.Name,
		Char:       tmpl.Char,
		Color:      tmpl.Color,
		Weight:     tmpl.Weight,
		Stackable:  tmpl.Stackable,
		StackCount: stackCount,
		MaxStack:   maxStack,
	}, true
}

// AddToInventory places item into inv, stacking onto existing stacks
// first. Returns the leftover portion and whether the item was fully
// absorbed; partial stack transfers are committed either way.
func AddToInventory(inv *Inventory, item Item) (Item, bool) {
	if inv.TotalWeight+item.Weight*float64(item.StackCount) > inv.MaxWeight {
		return item, false
	}

	if item.Stackable {
		for i := range inv.Items {
			existing := &inv.Items[i]
			if existing.TemplateID != item.TemplateID {
				continue
			}
			space := existing.MaxStack - existing.StackCount
			if space <= 0 {
				continue
			}
			transfer := space
			if item.StackCount < transfer {
				transfer = item.StackCount
			}
			existing.StackCount += transfer
			item.StackCount -= transfer
			inv.TotalWeight += item.Weight * float64(transfer)
			if item.StackCount == 0 {
				return item, true
			}
		}
	}

	if len(inv.Items) >= inv.MaxItems {
		return item, false
	}
	inv.Items = append(inv.Items, item)
	inv.TotalWeight += item.Weight * float64(item.StackCount)
	item.StackCount = 0
	return item, true
}

// RemoveFromInventory takes count of the item with the given instance
// id out of inv. Partial removals split the stack; the removed portion
// is returned as a fresh instance.
func RemoveFromInventory(inv *Inventory, itemID uint64, count int) (Item, bool) {
	for i := range inv.Items {
		item := &inv.Items[i]
		if item.ID != itemID {
			continue
		}
		if item.Stackable && item.StackCount > count {
			item.StackCount -= count
			inv.TotalWeight -= item.Weight * float64(count)
			removed, _ := NewItem(item.TemplateID, count)
			return removed, true
		}
		removed := *item
		inv.TotalWeight -= item.Weight * float64(item.StackCount)
		inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
		return removed, true
	}
	return Item{}, false
}

// NewInventory returns an empty inventory with the default limits.
func NewInventory() *Inventory {
	return &Inventory{
		MaxItems:  20,
		MaxWeight: 100.0,
	}
}

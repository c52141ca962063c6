package seed

import (
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	masterUsername = "mestre"
	masterClass    = "Mestre do Reino"
	emailDomain    = "rpgmarket.com"
)

type character struct {
	username string
	class    string
}

var adventurers = []character{
	{"ArthurCavaleiro", "Guerreiro"},
	{"MerlinMago", "Mago"},
	{"LancelotGuerreiro", "Guerreiro"},
	{"GwenArqueira", "Ranger"},
	{"TristanBardo", "Bardo"},
	{"GalahadPaladino", "Paladino"},
	{"GarethLadrao", "Ladino"},
	{"PercivalMonge", "Clérigo"},
	{"KayEscudeiro", "Guerreiro"},
	{"BedivereCapitao", "Paladino"},
	{"GawainBarbaro", "Guerreiro"},
	{"LamorakRanger", "Ranger"},
	{"MorganaFeiticeira", "Mago"},
	{"GarethCacador", "Ranger"},
	{"ElaineCurandeira", "Clérigo"},
	{"LynetteBruxa", "Druida"},
	{"DindraneProfetisa", "Clérigo"},
	{"YsabeauAlquimista", "Druida"},
	{"BlanchefleurMenestrel", "Bardo"},
	{"LaurielAssassina", "Ladino"},
}

// a small cast for the minimal data set
var simpleCast = []character{
	{"ArthurCavaleiro", "Guerreiro"},
	{"MerlinMago", "Mago"},
}

type item struct {
	name        string
	description string
	category    enums.Category
	rarity      enums.Rarity
	properties  []string
}

var shopItems = []item{
	{"Excalibur", "The sword of kings, drawn from the stone.", enums.CategoryWeapons, enums.RarityLegendary, []string{"Unbreakable", "Radiant"}},
	{"Merlin's Wand", "A wand that still hums with the old wizard's voice.", enums.CategoryScrolls, enums.RarityVeryRare, []string{"Arcane focus"}},
	{"Elven War Axe", "Light as a feather and twice as sharp.", enums.CategoryWeapons, enums.RarityRare, nil},
	{"Elven Longbow", "Carved from a single branch of silverwood.", enums.CategoryWeapons, enums.RarityRare, []string{"Silent"}},
	{"Enchanted Lute", "Plays itself when the bard grows tired.", enums.CategoryJewelry, enums.RarityUncommon, nil},
	{"Sacred Shield", "Blessed by the abbots of the high monastery.", enums.CategoryArmor, enums.RarityVeryRare, []string{"Holy ward"}},
	{"Shadow Dagger", "Its blade drinks the light around it.", enums.CategoryWeapons, enums.RarityRare, []string{"Stealth"}},
	{"Monk's Gloves", "Wrapped in prayer cloth.", enums.CategoryArmor, enums.RarityUncommon, nil},
	{"Leather Armor", "Sturdy armor for the road.", enums.CategoryArmor, enums.RarityCommon, nil},
	{"Captain's Cloak", "Warm, waterproof and very red.", enums.CategoryArmor, enums.RarityUncommon, nil},
	{"War Hammer", "Forged in the dwarven halls.", enums.CategoryWeapons, enums.RarityRare, nil},
	{"Elven Boots", "Leave no footprints in snow.", enums.CategoryArmor, enums.RarityUncommon, []string{"Silent steps"}},
	{"Greater Healing Potion", "Closes wounds in a heartbeat.", enums.CategoryPotions, enums.RarityCommon, []string{"Healing"}},
	{"Scroll of Fire", "Read aloud, then step back.", enums.CategoryScrolls, enums.RarityUncommon, []string{"Fireball"}},
	{"Ring of Protection", "A silver band with a faint blue glow.", enums.CategoryJewelry, enums.RarityRare, []string{"Ward"}},
	{"Lucky Amulet", "Found in a four-leaf field.", enums.CategoryJewelry, enums.RarityCommon, nil},
	{"Dragon Helm", "Scales of a red dragon riveted to steel.", enums.CategoryArmor, enums.RarityLegendary, []string{"Fire resistance"}},
	{"Flaming Sword", "Ignites when drawn in anger.", enums.CategoryWeapons, enums.RarityVeryRare, []string{"Fire damage"}},
	{"Arcane Staff", "A focus for the most demanding spells.", enums.CategoryScrolls, enums.RarityRare, nil},
	{"Heavy Crossbow", "Slow to load, hard to stop.", enums.CategoryWeapons, enums.RarityUncommon, nil},
	{"Golden Plate Armor", "Gilded plate for a parade or a siege.", enums.CategoryArmor, enums.RarityVeryRare, nil},
	{"Grimoire of Shadows", "Half the pages are blank until midnight.", enums.CategoryScrolls, enums.RarityVeryRare, []string{"Necromancy"}},
	{"Necklace of Wisdom", "The wearer hears good advice.", enums.CategoryJewelry, enums.RarityRare, nil},
	{"Swift Warhorse", "Bred in the southern plains.", enums.CategoryMounts, enums.RarityRare, []string{"Swift"}},
	{"Gem of Power", "Pulses like a second heart.", enums.CategoryMisc, enums.RarityLegendary, nil},
	{"Elixir of Immortality", "A single sip, they say, is enough.", enums.CategoryPotions, enums.RarityLegendary, []string{"Regeneration"}},
}

var auctionItems = []item{
	{"Crown of the Dragon King", "Extremely rare, auction only.", enums.CategoryJewelry, enums.RarityLegendary, nil},
	{"Scepter of the Supreme Arcane", "Extremely rare, auction only.", enums.CategoryScrolls, enums.RarityLegendary, nil},
	{"Armor of the Eternal Guardian", "Extremely rare, auction only.", enums.CategoryArmor, enums.RarityLegendary, nil},
	{"Storm Blade", "Extremely rare, auction only.", enums.CategoryWeapons, enums.RarityLegendary, []string{"Lightning"}},
	{"Orb of Eternal Truth", "Extremely rare, auction only.", enums.CategoryMisc, enums.RarityVeryRare, nil},
	{"The One Ring", "Extremely rare, auction only.", enums.CategoryJewelry, enums.RarityVeryRare, []string{"Invisibility"}},
	{"Chalice of Endless Life", "Extremely rare, auction only.", enums.CategoryPotions, enums.RarityVeryRare, nil},
	{"Cloak of Invisibility", "Extremely rare, auction only.", enums.CategoryArmor, enums.RarityVeryRare, nil},
	{"Boots of the Seven Winds", "Extremely rare, auction only.", enums.CategoryArmor, enums.RarityRare, nil},
	{"Axe of the Ancient Titan", "Extremely rare, auction only.", enums.CategoryWeapons, enums.RarityRare, nil},
	{"Forbidden Grimoire", "Extremely rare, auction only.", enums.CategoryScrolls, enums.RarityRare, nil},
	{"Griffin Mount", "Extremely rare, auction only.", enums.CategoryMounts, enums.RarityRare, nil},
}

type fixedListing struct {
	item
	price       decimal.Decimal
	auction     bool
	buyNow      *decimal.Decimal
	increment   *decimal.Decimal
	auctionDays int
}

func money(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

var simpleListings = []fixedListing{
	{
		item:  item{"Valyrian Steel Longsword", "Forged in the depths of the Mountains of Doom.", enums.CategoryWeapons, enums.RarityVeryRare, nil},
		price: decimal.RequireFromString("750.00"),
	},
	{
		item:        item{"Moonbranch Elven Bow", "Carved from the rare moonbranch tree of Eldoria.", enums.CategoryWeapons, enums.RarityRare, nil},
		price:       decimal.RequireFromString("300.00"),
		auction:     true,
		buyNow:      money("600.00"),
		increment:   money("20.00"),
		auctionDays: 5,
	},
	{
		item:  item{"Greater Healing Draught", "Heals grave wounds in an instant.", enums.CategoryPotions, enums.RarityUncommon, nil},
		price: decimal.RequireFromString("150.00"),
	},
	{
		item:  item{"Enchanted Ogre-Hide Backpack", "Carries twice the load without the burden.", enums.CategoryMisc, enums.RarityUncommon, nil},
		price: decimal.RequireFromString("220.00"),
	},
	{
		item:  item{"Lesser Amulet of Protection", "Silver and jasper against minor harm.", enums.CategoryJewelry, enums.RarityCommon, nil},
		price: decimal.RequireFromString("60.00"),
	},
}

// rarity price multipliers over a base price
var rarityMultiplier = map[enums.Rarity]decimal.Decimal{
	enums.RarityCommon:    decimal.NewFromInt(1),
	enums.RarityUncommon:  decimal.RequireFromString("1.5"),
	enums.RarityRare:      decimal.NewFromInt(2),
	enums.RarityVeryRare:  decimal.NewFromInt(3),
	enums.RarityLegendary: decimal.NewFromInt(5),
}

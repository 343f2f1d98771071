package contract

// Method and event names as deployed on chain.
const (
	MethodHasAvatar     = "checkIfUserHasNft"
	MethodListTemplates = "getAllDefaultCharacters"
	MethodMintAvatar    = "mintCharacterNFT"
	MethodAttackBoss    = "attackBoss"
	MethodGetBoss       = "getBigBoss"

	eventCharacterAssigned = "CharacterNFTMinted"
	eventAttackResolved    = "AttackComplete"
)

// GameABI is the ABI of the arena game contract.
const GameABI = `[
	{
		"inputs": [],
		"name": "checkIfUserHasNft",
		"outputs": [
			{"components": [
				{"internalType": "uint256", "name": "characterIndex", "type": "uint256"},
				{"internalType": "string", "name": "name", "type": "string"},
				{"internalType": "string", "name": "imageURI", "type": "string"},
				{"internalType": "uint256", "name": "hp", "type": "uint256"},
				{"internalType": "uint256", "name": "maxHp", "type": "uint256"},
				{"internalType": "uint256", "name": "attackDamage", "type": "uint256"}
			], "internalType": "struct MyEpicGame.CharacterAttributes", "name": "", "type": "tuple"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getAllDefaultCharacters",
		"outputs": [
			{"components": [
				{"internalType": "uint256", "name": "characterIndex", "type": "uint256"},
				{"internalType": "string", "name": "name", "type": "string"},
				{"internalType": "string", "name": "imageURI", "type": "string"},
				{"internalType": "uint256", "name": "hp", "type": "uint256"},
				{"internalType": "uint256", "name": "maxHp", "type": "uint256"},
				{"internalType": "uint256", "name": "attackDamage", "type": "uint256"}
			], "internalType": "struct MyEpicGame.CharacterAttributes[]", "name": "", "type": "tuple[]"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getBigBoss",
		"outputs": [
			{"components": [
				{"internalType": "string", "name": "name", "type": "string"},
				{"internalType": "string", "name": "imageURI", "type": "string"},
				{"internalType": "uint256", "name": "hp", "type": "uint256"},
				{"internalType": "uint256", "name": "maxHp", "type": "uint256"},
				{"internalType": "uint256", "name": "attackDamage", "type": "uint256"}
			], "internalType": "struct MyEpicGame.BigBoss", "name": "", "type": "tuple"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "_characterIndex", "type": "uint256"}],
		"name": "mintCharacterNFT",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "attackBoss",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "address", "name": "sender", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "tokenId", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "characterIndex", "type": "uint256"}
		],
		"name": "CharacterNFTMinted",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "address", "name": "sender", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "newBossHp", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "newPlayerHp", "type": "uint256"}
		],
		"name": "AttackComplete",
		"type": "event"
	}
]`

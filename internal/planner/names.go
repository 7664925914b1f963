package planner

// FemaleNames is the name pool drawn from for the "female" category.
var FemaleNames = []string{
	"Charusree", "Jeyanthi", "Janaki", "Dhanya", "Hasini", "Meera", "Sumathi",
	"Kavika", "Nithyasree", "Idhaya", "Lipika", "Kala", "Indira", "Ishika",
	"Poonam", "Sujatha", "Haritha", "Jnanika", "Amutha", "Iraivi", "Maanasa",
	"Bhavadhaarini", "Chandrika", "Isaimani", "Ashwika", "Ezhilovya", "Madhura",
	"Nethra", "Mohana", "Sathyaabama", "Elakiya", "Gokila", "Ashna", "Pavithra",
	"Anupriya", "Barkavi", "Kalaichudar", "Jashvika", "Gajalila", "Aaral", "Sneha",
	"Ezhilarasi", "Rishika", "Grishma", "Charu", "Padmavathy", "Abhirami", "Nithika",
	"Jayani", "Ilakkiya",
}

// MaleNames is the name pool drawn from for the "male" category.
var MaleNames = []string{
	"Ravichandran", "Prasannakumar", "Revanthkumar", "Rajadurai", "Kavinesh",
	"Aravindan", "Anbumalar", "Keshwant", "Nidhesh", "Harinath", "Ilanchezhiyan",
	"Nishanth", "Adhavan", "Akshay", "Rakesh", "Elangovan", "Darshan", "Sharan",
	"Agamaran", "Madhavanraj", "Inbanathan", "Akathiyan", "Arunaachalam", "Aadhithya",
	"Saranraj", "Bhagavan", "Charuvik", "Devaananth", "Litesh", "Dhina", "Rajanathan",
	"Bharat", "Nilavan", "Dhilip", "Aariv", "Nirmalkumar", "Arvind", "Oviyan",
	"Lavanyan", "Mugilan", "Jeyan", "Tarun", "Lakshminarayan", "Aravath", "Boobalan",
	"Krithin", "Nalan", "Elumalai", "Madhesh", "Nithin", "Malaravan", "Aadhit",
	"Murali", "Balamurali", "Anandan", "Pritiv", "Elavarasan", "Dayanand", "Murugaraj",
	"Mathisoodan", "Karthik", "Ezhilvendhan", "Punithan", "Gokulnath", "Gopinath",
	"Rishikesh", "Ramesh", "Annamalai", "Haribaskar", "Pramodkumar", "Ravishankar",
	"Janakiraman", "Ainkaran", "Balaji", "Aarathiyan", "Jayaraman", "Anthuvan",
	"Aaruthiran", "Nandha", "Sanjeev", "Adhishwar", "Mani", "Nikhilan", "Nigilan",
	"Nihar", "Dayanithi", "Aathireyan", "Nibunraj", "Geethan", "Anantharaj",
	"Nagarajan", "Rishi", "Balamurugan", "Pradeepkumar", "Prithviraj", "Nithyanandam",
	"Naveenkumar", "Hemeshwar", "Haresh", "Kalaiarasan",
}
